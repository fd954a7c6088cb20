// Package brick implements the BrickCommander device model: the brick
// records, their runtime state machine, the command/status wire codec and
// the persisted device list.
//
// # State Machine
//
// Each brick is in one of three phases:
//
//	Disconnected ──Connect──▶ Connected-Idle ◀──Stop── Connected-Running
//	      ▲                        │  SetPower(v>0)+CommitPower / Start(v>0) ▲
//	      └────────Disconnect──────┴─────────────────────────────────────────┘
//
// Connect and Disconnect are legal from any phase. Every other transition
// needs a connected brick and fails with ErrIllegalTransition otherwise.
// SetPower only previews a value (a slider being dragged); CommitPower
// sends it. Power is clamped to [0,100] on every write.
//
// # Wire Format
//
// Commands go to the gateway as
//
//	{"controller":"BuWizz2","mac":"50:FA:AB:00:11:22","port":0,"power":55,"direction":"forward","disconnect":false}
//
// and the gateway reports back with
//
//	{"status":"OK","message":"..."}
//
// Status messages carry no brick identity and never change State.
//
// # Persistence
//
// The Registry keeps records and states together and saves the record list
// through a Store (FileStore or SQLiteStore) after every Add and Remove.
// State is runtime only: loading always yields disconnected, idle bricks.
package brick
