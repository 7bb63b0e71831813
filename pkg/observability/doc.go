/*
Package observability turns machine lifecycle hooks into logs, metrics and
trace events.

Each constructor returns a domain.LifecycleHooks value; combine them with
LifecycleHooks.Merge and pass the result to canopy.WithLifecycleHooks.
*/
package observability
