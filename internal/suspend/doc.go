/*
Package suspend owns the reversible process suspension state machine.

# Overview

Suspending a process walks a three-tier fallback ladder:

 1. KernelTask: freeze the process's cgroup through the v2 freezer,
    holding the open control file as an owned resource handle.
 2. Signal: deliver SIGSTOP, resumed later with SIGCONT.
 3. Virtual: bookkeeping only. The process keeps running but is tracked
    as suspended. This tier never fails.

The caller-visible contract is that Suspend and Resume always succeed:
every tier failure is logged and counted, then the next tier is tried,
ending at Virtual. Callers are never told "could not suspend". This is
a product decision, not an oversight; the failure detail lives in the
log and metrics side channels only.

# Bookkeeping

One record per suspended PID lives in a map guarded by a single lock.
Suspend is idempotent (a second call returns the existing state without
re-acquiring a kernel handle) and Resume on an untracked PID is a no-op.
Kernel handles are released exactly once on the resume or shutdown path,
even when the kernel thaw itself fails.

A journal of current records is persisted after every mutation so a
restarted daemon can resume processes a crashed predecessor left frozen.
*/
package suspend
