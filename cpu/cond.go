package cpu

// EvalCond evaluates a 4-bit condition code against the current
// flags. Codes 14 and 15 both read as always-true.
func (c *CPU) EvalCond(cond uint32) bool {
	switch cond & 0xF {
	case 0: // eq
		return c.Z
	case 1: // ne
		return !c.Z
	case 2: // cs / hs
		return c.C
	case 3: // cc / lo
		return !c.C
	case 4: // mi
		return c.N
	case 5: // pl
		return !c.N
	case 6: // vs
		return c.V
	case 7: // vc
		return !c.V
	case 8: // hi
		return c.C && !c.Z
	case 9: // ls
		return !c.C || c.Z
	case 10: // ge
		return c.N == c.V
	case 11: // lt
		return c.N != c.V
	case 12: // gt
		return !c.Z && c.N == c.V
	case 13: // le
		return c.Z || c.N != c.V
	}
	return true
}
