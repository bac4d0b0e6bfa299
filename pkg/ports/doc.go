/*
Package ports defines the driven ports (interfaces) for the perennial engine.

These interfaces decouple the core logic from external implementations,
allowing hosts to mix storage backends, side-effect executors, and lock
providers without touching the machine.

# Key Interfaces

  - BlobStore: persists checkpointed state payloads (memory, file, redis,
    sqlite adapters).
  - Dispatcher: executes the actions a machine emits.
  - DistributedLocker: coordinates session access across replicas.

RunBlobStoreContract is the conformance suite every BlobStore adapter runs
in its own tests.
*/
package ports
