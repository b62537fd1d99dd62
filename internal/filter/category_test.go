package filter_test

import (
	"math/rand"
	"strings"
	"sync"
	"testing"

	"github.com/nongsanviet/shopcli/internal/filter"
	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Rau Củ Tươi", "rau cu tuoi"},
		{"  TRÁI CÂY  ", "trai cay"},
		{"Hải sản", "hai san"},
		{"Đồ khô", "đo kho"},
		{"rau cu", "rau cu"},
		{"", ""},
		{"   ", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, filter.Normalize(tt.input), "Normalize(%q)", tt.input)
	}
}

func TestNormalize_DecomposedInput(t *testing.T) {
	// "củ" spelled with a combining hook above rather than the precomposed rune.
	assert.Equal(t, "rau cu", filter.Normalize("Rau cu\u0309"))
}

func TestNormalize_Idempotent(t *testing.T) {
	pool := []rune("aăâbcdđeêghiklmnoôơpqrstuưvxyAĂÂĐÊÔƠƯáàảãạắằẳẵặấầẩẫậéèẻẽẹếềểễệíìỉĩịóòỏõọốồổỗộớờởỡợúùủũụứừửữựýỳỷỹỵ -_&́̃")
	rng := rand.New(rand.NewSource(11))

	for i := 0; i < 2000; i++ {
		var b strings.Builder
		n := rng.Intn(24)
		for range n {
			b.WriteRune(pool[rng.Intn(len(pool))])
		}
		s := b.String()
		once := filter.Normalize(s)
		assert.Equal(t, once, filter.Normalize(once), "Normalize not idempotent for %q", s)
	}
}

func TestNormalize_ConcurrentUse(t *testing.T) {
	inputs := map[string]string{
		"Rau Củ Tươi": "rau cu tuoi",
		"Hải sản":     "hai san",
		"GAO ST25":    "gao st25",
	}
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 200 {
				for in, want := range inputs {
					if got := filter.Normalize(in); got != want {
						t.Errorf("Normalize(%q) = %q, want %q", in, got, want)
						return
					}
				}
			}
		}()
	}
	wg.Wait()
}

func TestIsProductInCategory_DiacriticTolerance(t *testing.T) {
	assert.True(t, filter.IsProductInCategory("Rau Củ Tươi", "Rau củ"))
	assert.True(t, filter.IsProductInCategory("rau cu", "Rau củ"))
	assert.True(t, filter.IsProductInCategory("RAU CỦ", "rau cu"))
	assert.True(t, filter.IsProductInCategory("Trái cây nhập khẩu", "Trái cây"))
}

func TestIsProductInCategory_Exclusions(t *testing.T) {
	assert.False(t, filter.IsProductInCategory("Dụng cụ nông nghiệp - máy cắt cỏ", "Rau củ"))
	assert.False(t, filter.IsProductInCategory("Dụng cụ nông sản", "Rau củ"))
	assert.False(t, filter.IsProductInCategory("Thịt trâu gác bếp", "Rau củ"))
	assert.False(t, filter.IsProductInCategory("Hạt giống rau cải", "Rau củ"))
	assert.False(t, filter.IsProductInCategory("Rau củ quả", "Trái cây"))

	// The same labels land in the bucket that owns them.
	assert.True(t, filter.IsProductInCategory("Dụng cụ nông nghiệp - máy cắt cỏ", "Dụng cụ nông nghiệp"))
	assert.True(t, filter.IsProductInCategory("Hạt giống rau cải", "Phân bón & Hạt giống"))
}

func TestIsProductInCategory_ExclusionYieldsToExplicitTarget(t *testing.T) {
	assert.True(t, filter.IsProductInCategory("Rau củ - kèm dụng cụ gọt", "Rau củ"))
	assert.True(t, filter.IsProductInCategory("rau cu va may xay", "Rau củ"))
}

func TestIsProductInCategory_NullSafety(t *testing.T) {
	assert.False(t, filter.IsProductInCategory("", "Rau củ"))
	assert.False(t, filter.IsProductInCategory("   ", "Trái cây"))
	assert.False(t, filter.IsProductInCategory(filter.Deref(nil), "Trái cây"))
}

func TestIsProductInCategory_AliasFastPath(t *testing.T) {
	assert.True(t, filter.IsProductInCategory("vegetables", "Rau củ"))
	assert.True(t, filter.IsProductInCategory(" Hoa Quả ", "Trái cây"))
	assert.True(t, filter.IsProductInCategory("Thủy hải sản", "Hải sản"))
}

func TestIsProductInCategory_WholeWordKeywords(t *testing.T) {
	assert.True(t, filter.IsProductInCategory("Gà ta thả vườn", "Thịt"))
	assert.True(t, filter.IsProductInCategory("Bò Úc", "Thịt"))
	assert.False(t, filter.IsProductInCategory("Gạo thơm ST25", "Thịt"))
	assert.False(t, filter.IsProductInCategory("Bột năng", "Thịt"))
}

func TestIsProductInCategory_UnknownTargetFallsBack(t *testing.T) {
	assert.True(t, filter.IsProductInCategory("Sữa tươi thanh trùng", "Sữa"))
	assert.False(t, filter.IsProductInCategory("Sữa tươi", "Mật ong"))
}

func TestIsProductInCategory_CrossCategory(t *testing.T) {
	assert.False(t, filter.IsProductInCategory("Trái Cây Tươi", "Rau củ"))
	assert.False(t, filter.IsProductInCategory("Tôm sú", "Rau củ"))
	assert.True(t, filter.IsProductInCategory("Tôm sú", "Hải sản"))
	assert.True(t, filter.IsProductInCategory("Gạo nếp cái hoa vàng", "Gạo & Ngũ cốc"))
	assert.False(t, filter.IsProductInCategory("Máy xay gạo", "Gạo & Ngũ cốc"))
}

func TestMatches(t *testing.T) {
	assert.True(t, filter.Matches("Rau Củ", "rau củ", nil))
	assert.True(t, filter.Matches("Rau củ Đà Lạt", "Rau củ", nil))
	assert.False(t, filter.Matches("Rau", "Rau củ", nil), "reverse containment alone is not a match")
	assert.True(t, filter.Matches("Nấm rơm", "Rau củ", []string{"nấm"}))
	assert.False(t, filter.Matches("", "Rau củ", []string{"rau"}))
}

func TestMatches_RepeatedKeywordsGiveSameAnswer(t *testing.T) {
	keywords := []string{"rau", "x", "hoa quả"}
	for range 3 {
		assert.True(t, filter.Matches("Hoa Quả Nhập", "Trái cây", keywords))
		assert.True(t, filter.Matches("rau muống", "Khác", keywords))
		assert.False(t, filter.Matches("x", "Khác", keywords), "single-rune keyword is ignored")
	}
}

func TestMatches_ShortTargetNeedsExactMatch(t *testing.T) {
	assert.False(t, filter.Matches("Cà chua", "Cà", nil))
	assert.True(t, filter.Matches("cà", "Cà", nil))
}

func TestMatches_ShortKeywordGuard(t *testing.T) {
	for _, kw := range []string{"a", "c", "đ", " x ", ""} {
		assert.False(t, filter.Matches("a b c đ x", "Trái cây", []string{kw}), "keyword %q", kw)
	}
}

func TestMatches_TwoRuneKeywordIsWholeWordOnly(t *testing.T) {
	assert.True(t, filter.Matches("Cá lóc đồng", "Hải sản", []string{"cá"}))
	assert.False(t, filter.Matches("Cam sành", "Hải sản", []string{"ca"}))
}

func TestCanonicalCategory(t *testing.T) {
	assert.Equal(t, "Rau củ", filter.CanonicalCategory("rau cu"))
	assert.Equal(t, "Trái cây", filter.CanonicalCategory("Hoa quả"))
	assert.Equal(t, "Sữa", filter.CanonicalCategory("  Sữa "))
	assert.Len(t, filter.CanonicalCategories(), 8)
}
