/*
Package ports defines the driven ports (interfaces) of the arbor runtime.

These interfaces decouple the engine from external implementations, so the
same flows run against different storage backends, model sources and
transports.

# Key Interfaces

  - ExecutionStore: persists paused executions between requests.
  - ModelLoader: supplies flow models (e.g. from Loam or memory).
  - DistributedLocker: serializes access to an execution across replicas.
  - FlowExecutor: launches and resumes executions for transport adapters.

RunExecutionStoreContract and the tests subpackage hold reusable suites
that every adapter runs.
*/
package ports
