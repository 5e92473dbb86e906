package benchmark

import (
	"testing"

	"github.com/dzonerzy/esw/internal/pool"
)

// Category: pool

func BenchmarkBuilderPool(b *testing.B) {
	b.Run("Pool", func(b *testing.B) {
		b.RunParallel(func(pb *testing.PB) {
			for pb.Next() {
				sb := pool.GetBuilder()
				sb.WriteString("done command=build duration=12ms")
				_ = sb.String()
				pool.PutBuilder(sb)
			}
		})
	})
	b.Run("Direct", func(b *testing.B) {
		b.RunParallel(func(pb *testing.PB) {
			for pb.Next() {
				var sb = make([]byte, 0, 64)
				sb = append(sb, "done command=build duration=12ms"...)
				_ = string(sb)
			}
		})
	})
}
