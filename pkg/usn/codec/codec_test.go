package codec

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/volwatch/usnjrnl/pkg/device/devicetest"
	"github.com/volwatch/usnjrnl/pkg/usn"
)

func v2Spec(cursor usn.Usn, name string) devicetest.RecordSpec {
	return devicetest.RecordSpec{
		Version:    2,
		FileID:     usn.FileIDFromUint64(0x1111),
		ParentID:   usn.FileIDFromUint64(0x2222),
		Usn:        cursor,
		Timestamp:  133600000000000000,
		Reason:     usn.ReasonFileCreate | usn.ReasonClose,
		SecurityID: 7,
		Attributes: 0x20,
		Name:       name,
	}
}

func v3Spec(cursor usn.Usn, name string) devicetest.RecordSpec {
	return devicetest.RecordSpec{
		Version:   3,
		FileID:    usn.FileID{Lo: 0xdead, Hi: 0xbeef},
		ParentID:  usn.FileID{Lo: 0xcafe, Hi: 0xf00d},
		Usn:       cursor,
		Timestamp: 133600000000000001,
		Reason:    usn.ReasonDataExtend,
		Name:      name,
	}
}

func TestDecode(t *testing.T) {
	t.Run("EmptyBufferYieldsCursorOnly", func(t *testing.T) {
		next, records, err := Decode(devicetest.CursorOnly(4096))
		require.NoError(t, err)
		assert.Equal(t, usn.Usn(4096), next)
		assert.Empty(t, records)
	})

	t.Run("DecodesVersion2", func(t *testing.T) {
		buf := devicetest.ReadBuffer(200, v2Spec(100, "report.txt"))
		next, records, err := Decode(buf)
		require.NoError(t, err)
		assert.Equal(t, usn.Usn(200), next)
		require.Len(t, records, 1)

		r := records[0]
		assert.Equal(t, usn.FileIDFromUint64(0x1111), r.FileID)
		assert.Equal(t, usn.FileIDFromUint64(0x2222), r.ParentID)
		assert.Equal(t, usn.Usn(100), r.Usn)
		assert.Equal(t, int64(133600000000000000), r.Timestamp)
		assert.Equal(t, usn.ReasonFileCreate|usn.ReasonClose, r.Reason)
		assert.Equal(t, uint32(7), r.SecurityID)
		assert.Equal(t, uint32(0x20), r.Attributes)
		assert.Equal(t, "report.txt", r.Name())
	})

	t.Run("DecodesVersion3With128BitIDs", func(t *testing.T) {
		buf := devicetest.ReadBuffer(300, v3Spec(250, "データ.bin"))
		_, records, err := Decode(buf)
		require.NoError(t, err)
		require.Len(t, records, 1)

		r := records[0]
		assert.Equal(t, usn.FileID{Lo: 0xdead, Hi: 0xbeef}, r.FileID)
		assert.Equal(t, usn.FileID{Lo: 0xcafe, Hi: 0xf00d}, r.ParentID)
		assert.Equal(t, "データ.bin", r.Name())
	})

	t.Run("MixedVersionsInOneBuffer", func(t *testing.T) {
		buf := devicetest.ReadBuffer(500,
			v2Spec(10, "a.txt"), v3Spec(20, "b.txt"), v2Spec(30, "c.txt"))
		_, records, err := Decode(buf)
		require.NoError(t, err)
		require.Len(t, records, 3)
		assert.Equal(t, usn.Usn(10), records[0].Usn)
		assert.Equal(t, usn.Usn(20), records[1].Usn)
		assert.Equal(t, usn.Usn(30), records[2].Usn)
	})

	t.Run("DecodingIsIdempotent", func(t *testing.T) {
		buf := devicetest.ReadBuffer(500, v2Spec(10, "a.txt"), v3Spec(20, "b.txt"))
		next1, recs1, err1 := Decode(buf)
		next2, recs2, err2 := Decode(buf)
		require.NoError(t, err1)
		require.NoError(t, err2)
		assert.Equal(t, next1, next2)
		require.Equal(t, len(recs1), len(recs2))
		for i := range recs1 {
			assert.True(t, recs1[i].Equal(recs2[i]))
		}
	})

	t.Run("RejectsBufferShorterThanCursorPrefix", func(t *testing.T) {
		_, _, err := Decode([]byte{1, 2, 3})
		var cerr *Error
		require.ErrorAs(t, err, &cerr)
	})

	t.Run("RejectsZeroRecordCursor", func(t *testing.T) {
		// Usn 0 is "no activity recorded", never a real position.
		buf := devicetest.ReadBuffer(500, v2Spec(0, "ghost.txt"))
		_, _, err := Decode(buf)
		var cerr *Error
		require.ErrorAs(t, err, &cerr)
		assert.Contains(t, cerr.Msg, "zero cursor")
	})

	t.Run("RejectsTruncatedHeader", func(t *testing.T) {
		buf := devicetest.ReadBuffer(500, v2Spec(10, "a.txt"))
		_, _, err := Decode(buf[:len(buf)-70]) // cut into the header
		var cerr *Error
		require.ErrorAs(t, err, &cerr)
	})

	t.Run("RejectsLengthOverrunningBuffer", func(t *testing.T) {
		buf := devicetest.ReadBuffer(500, v2Spec(10, "a.txt"))
		// Inflate the declared length past the end of the buffer.
		binary.LittleEndian.PutUint32(buf[8:], uint32(len(buf)))
		_, _, err := Decode(buf)
		var cerr *Error
		require.ErrorAs(t, err, &cerr)
		assert.Contains(t, cerr.Msg, "overruns")
	})

	t.Run("RejectsUnknownVersion", func(t *testing.T) {
		buf := devicetest.ReadBuffer(500, v2Spec(10, "a.txt"))
		binary.LittleEndian.PutUint16(buf[8+4:], 4)
		_, _, err := Decode(buf)
		var cerr *Error
		require.ErrorAs(t, err, &cerr)
		assert.Contains(t, cerr.Msg, "version")
	})

	t.Run("RejectsLengthBelowVersionMinimum", func(t *testing.T) {
		buf := devicetest.ReadBuffer(500, v2Spec(10, "a.txt"))
		// Shrink below the v2 minimum while keeping the buffer intact.
		binary.LittleEndian.PutUint32(buf[8:], 40)
		_, _, err := Decode(buf)
		var cerr *Error
		require.ErrorAs(t, err, &cerr)
	})

	t.Run("RejectsNameRangeEscapingRecord", func(t *testing.T) {
		buf := devicetest.ReadBuffer(500, v2Spec(10, "ab"))
		// Point the name past the declared record length.
		binary.LittleEndian.PutUint16(buf[8+58:], 200)
		_, _, err := Decode(buf)
		var cerr *Error
		require.ErrorAs(t, err, &cerr)
		assert.Contains(t, cerr.Msg, "name range")
	})

	t.Run("AdvancesByDeclaredLengthNotStructSize", func(t *testing.T) {
		// A 1-char name pads the record to 64 bytes; the second record
		// must be found right after the padding.
		buf := devicetest.ReadBuffer(500, v2Spec(10, "x"), v2Spec(20, "y"))
		_, records, err := Decode(buf)
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, "x", records[0].Name())
		assert.Equal(t, "y", records[1].Name())
	})
}

func TestDecodeOne(t *testing.T) {
	t.Run("DecodesSingleRecordWithoutPrefix", func(t *testing.T) {
		rec, err := DecodeOne(devicetest.FileRecord(v3Spec(42, "own.txt")))
		require.NoError(t, err)
		assert.Equal(t, usn.Usn(42), rec.Usn)
		assert.Equal(t, "own.txt", rec.Name())
	})

	t.Run("ToleratesZeroCursor", func(t *testing.T) {
		// Read-by-handle reports Usn 0 for "no journal data"; the
		// resolver needs to observe it, not have it rejected here.
		rec, err := DecodeOne(devicetest.FileRecord(v2Spec(0, "x")))
		require.NoError(t, err)
		assert.True(t, rec.Usn.IsNone())
	})

	t.Run("ToleratesEmptyName", func(t *testing.T) {
		rec, err := DecodeOne(devicetest.FileRecord(v2Spec(7, "")))
		require.NoError(t, err)
		assert.Empty(t, rec.NameRaw)
		assert.Equal(t, "", rec.Name())
	})

	t.Run("RejectsTrailingBytes", func(t *testing.T) {
		buf := devicetest.FileRecord(v2Spec(7, "x"))
		buf = append(buf, 0, 0, 0, 0)
		_, err := DecodeOne(buf)
		var cerr *Error
		require.ErrorAs(t, err, &cerr)
	})
}
