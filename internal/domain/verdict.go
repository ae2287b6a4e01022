package domain

import "fmt"

// Verdict is the classified outcome of scanning one object.
type Verdict int

const (
	VerdictClean Verdict = iota
	VerdictInfected
	VerdictScanError
)

func (v Verdict) String() string {
	switch v {
	case VerdictClean:
		return "clean"
	case VerdictInfected:
		return "infected"
	case VerdictScanError:
		return "scan-error"
	default:
		return fmt.Sprintf("verdict(%d)", int(v))
	}
}

// VerdictFromExitCode maps a scanner exit status to a verdict. Unknown codes
// map to VerdictScanError and report ok=false.
func VerdictFromExitCode(code int) (verdict Verdict, ok bool) {
	switch code {
	case 0:
		return VerdictClean, true
	case 1:
		return VerdictInfected, true
	case 2:
		return VerdictScanError, true
	default:
		return VerdictScanError, false
	}
}
