/*
Package session orchestrates access to stored executions.

Every read-modify-write of an execution runs under a per-key lock: a
ref-counted in-process mutex, plus a distributed lock when a
ports.DistributedLocker is configured, so replicas sharing a store never
resume the same execution concurrently.
*/
package session
