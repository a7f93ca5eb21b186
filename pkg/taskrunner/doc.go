// Package taskrunner hosts the task abstractions shared by vsxbuild build
// pipelines. Tasks are named actions (`Define`) that compose into ordered
// pipelines (`Series`). A `Registry` built once at startup validates that every
// task name is unique, and a `Runner` executes registered tasks by name with
// structured logging. `Settle` fans independent units of work out and records
// every outcome without cancelling siblings when one of them fails.
package taskrunner
