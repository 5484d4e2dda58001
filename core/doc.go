// Package core contains canonical credential-provisioning domain contracts,
// entities, and orchestration logic. Lower-level adapters must depend on this
// package; core must not depend on storage or transport adapters.
package core
