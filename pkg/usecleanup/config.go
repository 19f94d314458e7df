package usecleanup

// DebugMode enables development-time checks for invalid hook usage.
// When true, hook order is validated on every render; violations panic
// with a descriptive [USECLEANUP E002] message.
//
// When false (production), hook order tracking is skipped entirely for
// minimal overhead. Hook slot storage stays active either way because
// callback identity depends on it for correctness.
//
// Set this at application startup:
//
//	func main() {
//	    usecleanup.DebugMode = os.Getenv("USECLEANUP_DEBUG") == "1"
//	    // ...
//	}
var DebugMode = false
