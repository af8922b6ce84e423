// Package message collects user-facing messages raised while processing a
// request, such as the errors of a failed transition bind.
//
// A Resolver describes a message by codes and arguments. It is resolved
// against a Source, usually a Bundle of text templates, into a Message.
// Codes are tried most specific first; the resolver's default text is used
// when the source knows none of them.
package message
