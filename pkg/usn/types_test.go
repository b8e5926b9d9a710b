package usn

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUsn(t *testing.T) {
	t.Run("ZeroIsReserved", func(t *testing.T) {
		assert.True(t, None.IsNone())
		assert.False(t, Usn(1).IsNone())
	})

	t.Run("UnsignedOrdering", func(t *testing.T) {
		// The high bit must not flip comparisons.
		low := Usn(100)
		high := Usn(0x8000000000000000)
		assert.True(t, low < high)
	})
}

func TestFileID(t *testing.T) {
	t.Run("FromUint64ZeroExtends", func(t *testing.T) {
		id := FileIDFromUint64(0xabc)
		assert.Equal(t, uint64(0xabc), id.Lo)
		assert.Zero(t, id.Hi)
	})

	t.Run("EqualityIsOverFull128Bits", func(t *testing.T) {
		a := FileID{Lo: 1, Hi: 0}
		b := FileID{Lo: 1, Hi: 2}
		assert.NotEqual(t, a, b)
		assert.Equal(t, a, FileID{Lo: 1})
	})

	t.Run("UsableAsMapKey", func(t *testing.T) {
		m := map[FileID]string{
			{Lo: 1, Hi: 2}: "x",
		}
		assert.Equal(t, "x", m[FileID{Lo: 1, Hi: 2}])
	})

	t.Run("IsZero", func(t *testing.T) {
		assert.True(t, FileID{}.IsZero())
		assert.False(t, FileID{Hi: 1}.IsZero())
	})

	t.Run("StringIs32HexDigits", func(t *testing.T) {
		assert.Len(t, FileID{Lo: 0xff, Hi: 1}.String(), 32)
	})
}

func encodeUTF16LE(s string) []byte {
	raw := make([]byte, 0, 2*len(s))
	for _, r := range s {
		raw = append(raw, byte(r), byte(uint16(r)>>8))
	}
	return raw
}

func TestRecordEqual(t *testing.T) {
	base := Record{
		FileID:  FileID{Lo: 1},
		Usn:     10,
		Reason:  ReasonFileCreate,
		NameRaw: encodeUTF16LE("Report.TXT"),
	}

	t.Run("NameComparesCaseInsensitively", func(t *testing.T) {
		other := base
		other.NameRaw = encodeUTF16LE("report.txt")
		assert.True(t, base.Equal(other))
	})

	t.Run("OtherFieldsCompareExactly", func(t *testing.T) {
		other := base
		other.Usn = 11
		assert.False(t, base.Equal(other))

		other = base
		other.Reason = ReasonFileDelete
		assert.False(t, base.Equal(other))
	})

	t.Run("DifferentNamesDiffer", func(t *testing.T) {
		other := base
		other.NameRaw = encodeUTF16LE("other.txt")
		assert.False(t, base.Equal(other))
	})
}

func TestRecordName(t *testing.T) {
	t.Run("DecodesUTF16", func(t *testing.T) {
		r := Record{NameRaw: encodeUTF16LE("héllo")}
		assert.Equal(t, "héllo", r.Name())
	})

	t.Run("EmptyNameDecodesEmpty", func(t *testing.T) {
		assert.Equal(t, "", Record{}.Name())
	})
}

func TestReasonString(t *testing.T) {
	t.Run("RendersSetBits", func(t *testing.T) {
		s := (ReasonFileCreate | ReasonClose).String()
		assert.Contains(t, s, "FILE_CREATE")
		assert.Contains(t, s, "CLOSE")
		assert.Contains(t, s, "|")
	})

	t.Run("ZeroIsNone", func(t *testing.T) {
		assert.Equal(t, "NONE", Reason(0).String())
	})

	t.Run("UnknownBitsKeptAsHex", func(t *testing.T) {
		s := Reason(0x01000000).String()
		assert.Contains(t, s, "0x1000000")
	})

	t.Run("HasRequiresAllBits", func(t *testing.T) {
		r := ReasonFileCreate | ReasonClose
		assert.True(t, r.Has(ReasonFileCreate))
		assert.False(t, r.Has(ReasonFileCreate|ReasonFileDelete))
	})
}
