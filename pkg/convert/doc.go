// Package convert coerces untyped values (request parameters, decoded JSON)
// into the types flow attributes expect.
//
// A Service hands out Executors bound to a (source, target) type pair:
//
//	svc := convert.NewDefaultService()
//	exec, err := svc.Executor(reflect.TypeOf(""), reflect.TypeOf(0))
//	n, err := exec.Execute("42") // 42
//
// Custom converters are registered with DefaultService.AddConverter, usually
// through Func.
package convert
