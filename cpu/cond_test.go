package cpu

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestEvalCondExhaustive checks every condition against every flag
// combination using the defining predicates.
func TestEvalCondExhaustive(t *testing.T) {
	defs := []struct {
		cond uint32
		name string
		want func(n, z, c, v bool) bool
	}{
		{0, "eq", func(n, z, c, v bool) bool { return z }},
		{1, "ne", func(n, z, c, v bool) bool { return !z }},
		{2, "cs", func(n, z, c, v bool) bool { return c }},
		{3, "cc", func(n, z, c, v bool) bool { return !c }},
		{4, "mi", func(n, z, c, v bool) bool { return n }},
		{5, "pl", func(n, z, c, v bool) bool { return !n }},
		{6, "vs", func(n, z, c, v bool) bool { return v }},
		{7, "vc", func(n, z, c, v bool) bool { return !v }},
		{8, "hi", func(n, z, c, v bool) bool { return c && !z }},
		{9, "ls", func(n, z, c, v bool) bool { return !c || z }},
		{10, "ge", func(n, z, c, v bool) bool { return n == v }},
		{11, "lt", func(n, z, c, v bool) bool { return n != v }},
		{12, "gt", func(n, z, c, v bool) bool { return !z && n == v }},
		{13, "le", func(n, z, c, v bool) bool { return z || n != v }},
		{14, "al", func(n, z, c, v bool) bool { return true }},
		{15, "nv", func(n, z, c, v bool) bool { return true }},
	}

	cpu := New(nil, nil)
	for _, d := range defs {
		for bits := 0; bits < 16; bits++ {
			cpu.N = bits&8 != 0
			cpu.Z = bits&4 != 0
			cpu.C = bits&2 != 0
			cpu.V = bits&1 != 0
			want := d.want(cpu.N, cpu.Z, cpu.C, cpu.V)
			got := cpu.EvalCond(d.cond)
			assert.Equal(t, want, got,
				fmt.Sprintf("%s with N=%v Z=%v C=%v V=%v", d.name, cpu.N, cpu.Z, cpu.C, cpu.V))
		}
	}
}
