package schedule

import (
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func iv(start, end string) Interval {
	return Interval{Start: MustParseTimeOfDay(start), End: MustParseTimeOfDay(end)}
}

func render(blocks []Interval) string {
	var b strings.Builder
	for _, block := range blocks {
		b.WriteString(block.String())
		b.WriteByte('\n')
	}
	return b.String()
}

func TestGenerateClassBlocks(t *testing.T) {
	t.Run("morning with a single break", func(t *testing.T) {
		blocks := GenerateClassBlocks(
			MustParseTimeOfDay("07:30"),
			MustParseTimeOfDay("12:00"),
			50,
			[]Interval{iv("09:10", "09:30")},
		)

		assert.Equal(t, []Interval{
			iv("07:30", "08:20"),
			iv("08:20", "09:10"),
			iv("09:30", "10:20"),
			iv("10:20", "11:10"),
			iv("11:10", "12:00"),
		}, blocks)
	})

	t.Run("break starting inside a candidate drops the candidate", func(t *testing.T) {
		blocks := GenerateClassBlocks(
			MustParseTimeOfDay("08:00"),
			MustParseTimeOfDay("10:00"),
			45,
			[]Interval{iv("08:30", "08:40")},
		)

		assert.Equal(t, []Interval{
			iv("08:40", "09:25"),
		}, blocks)
	})

	t.Run("trailing remainder is not emitted", func(t *testing.T) {
		blocks := GenerateClassBlocks(MustParseTimeOfDay("08:00"), MustParseTimeOfDay("09:00"), 40, nil)

		assert.Equal(t, []Interval{iv("08:00", "08:40")}, blocks)
	})

	t.Run("day starting inside a break", func(t *testing.T) {
		blocks := GenerateClassBlocks(
			MustParseTimeOfDay("07:00"),
			MustParseTimeOfDay("09:00"),
			60,
			[]Interval{iv("06:30", "07:30")},
		)

		assert.Equal(t, []Interval{iv("07:30", "08:30")}, blocks)
	})

	t.Run("unsorted breaks behave like sorted ones", func(t *testing.T) {
		breaks := []Interval{iv("10:00", "10:15"), iv("08:30", "08:45")}
		sorted := []Interval{iv("08:30", "08:45"), iv("10:00", "10:15")}
		start, end := MustParseTimeOfDay("08:00"), MustParseTimeOfDay("11:00")

		assert.Equal(t,
			GenerateClassBlocks(start, end, 30, sorted),
			GenerateClassBlocks(start, end, 30, breaks),
		)
	})

	t.Run("degenerate inputs yield nothing", func(t *testing.T) {
		start, end := MustParseTimeOfDay("08:00"), MustParseTimeOfDay("12:00")

		assert.Empty(t, GenerateClassBlocks(start, end, 0, nil))
		assert.Empty(t, GenerateClassBlocks(start, end, -5, nil))
		assert.Empty(t, GenerateClassBlocks(end, start, 50, nil))
		assert.Empty(t, GenerateClassBlocks(start, start, 50, nil))
	})

	t.Run("inverted breaks are ignored", func(t *testing.T) {
		blocks := GenerateClassBlocks(
			MustParseTimeOfDay("08:00"),
			MustParseTimeOfDay("09:00"),
			30,
			[]Interval{iv("08:40", "08:10")},
		)

		assert.Equal(t, []Interval{iv("08:00", "08:30"), iv("08:30", "09:00")}, blocks)
	})
}

func TestGenerateClassBlocksProperties(t *testing.T) {
	start, end := MustParseTimeOfDay("07:00"), MustParseTimeOfDay("18:00")
	breaks := []Interval{iv("09:40", "10:00"), iv("12:00", "13:15"), iv("15:05", "15:20")}

	for _, minutes := range []int{25, 30, 45, 50, 55, 60, 90} {
		blocks := GenerateClassBlocks(start, end, minutes, breaks)
		again := GenerateClassBlocks(start, end, minutes, breaks)
		require.Equal(t, blocks, again, "minutes=%d", minutes)

		for i, block := range blocks {
			assert.Equal(t, minutes, block.Minutes(), "minutes=%d block=%s", minutes, block)
			assert.GreaterOrEqual(t, block.Start, start)
			assert.LessOrEqual(t, block.End, end)
			for _, brk := range breaks {
				assert.False(t, block.Overlaps(brk), "block %s overlaps break %s", block, brk)
			}
			if i > 0 {
				assert.LessOrEqual(t, blocks[i-1].End, block.Start)
			}
		}
	}
}

func TestGenerateClassBlocksGolden(t *testing.T) {
	blocks := GenerateClassBlocks(
		MustParseTimeOfDay("07:00"),
		MustParseTimeOfDay("17:30"),
		45,
		[]Interval{iv("09:15", "09:30"), iv("12:00", "13:00"), iv("15:00", "15:15")},
	)

	g := goldie.New(t)
	g.Assert(t, "full_day_45min", []byte(render(blocks)))
}

func TestGenerateFromSettings(t *testing.T) {
	blocks, err := GenerateFromSettings("07:30", "12:00", 50, []Block{{StartTime: "09:10", EndTime: "09:30"}})
	require.NoError(t, err)
	require.Len(t, blocks, 5)
	assert.Equal(t, Block{StartTime: "09:30", EndTime: "10:20"}, blocks[2])

	_, err = GenerateFromSettings("7:30", "12:00", 50, nil)
	assert.ErrorIs(t, err, ErrInvalidTimeOfDay)

	_, err = GenerateFromSettings("07:30", "12:00", 50, []Block{{StartTime: "09:10", EndTime: "nine"}})
	assert.ErrorIs(t, err, ErrInvalidTimeOfDay)
}
