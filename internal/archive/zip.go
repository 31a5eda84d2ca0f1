package archive

import (
	"encoding/binary"
	"strings"
	"time"

	"github.com/iksnae/patch-vault/internal/compress"
)

// Minimal ZIP writer/reader. Only what the export file needs: deflate (8) and
// stored (0) entries, UTF-8 names, single central directory at the end. The
// output opens in any standard unzip tool; the reader accepts its own output
// plus well-formed archives from other producers.

const (
	localHeaderSig   = 0x04034b50
	centralHeaderSig = 0x02014b50
	eocdSig          = 0x06054b50

	localHeaderLen   = 30
	centralHeaderLen = 46
	eocdLen          = 22

	// EOCD may be followed by a comment of up to 64KB, so the backward
	// scan is bounded to eocdLen + 65535 bytes from the end.
	maxCommentLen = 65535

	methodStored  = 0
	methodDeflate = 8

	versionNeeded = 20
	flagUTF8Names = 1 << 11
	flagEncrypted = 1 << 0
)

// Entry is one named blob to be placed in an archive
type Entry struct {
	Name string
	Data []byte
}

// SafeName reports whether name is acceptable as an archive member path:
// non-empty, relative, forward-slash separated, and free of ".." segments.
func SafeName(name string) bool {
	if name == "" {
		return false
	}
	if strings.HasPrefix(name, "/") {
		return false
	}
	for _, seg := range strings.Split(name, "/") {
		if seg == ".." {
			return false
		}
	}
	return true
}

// dosDateTime encodes t as the MS-DOS date/time pair stored in ZIP headers.
// Years before 1980 clamp to the format's epoch.
func dosDateTime(t time.Time) (date uint16, tm uint16) {
	if t.Year() < 1980 {
		t = time.Date(1980, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	date = uint16((t.Year()-1980)<<9 | int(t.Month())<<5 | t.Day())
	tm = uint16(t.Hour()<<11 | t.Minute()<<5 | t.Second()/2)
	return date, tm
}

type memberRecord struct {
	name        []byte
	crc         uint32
	method      uint16
	compressed  uint32
	uncompressed uint32
	offset      uint32
}

// Build assembles a ZIP file from entries. Entries whose name fails SafeName
// are skipped rather than failing the whole archive; mtime stamps every
// member. The returned bytes are the complete archive.
func Build(entries []Entry, mtime time.Time) ([]byte, error) {
	date, tm := dosDateTime(mtime)

	var out []byte
	var members []memberRecord

	for _, entry := range entries {
		name := strings.ReplaceAll(entry.Name, "\\", "/")
		if !SafeName(name) {
			continue
		}

		crc := Checksum(entry.Data)
		body, err := compress.DeflateRaw(entry.Data)
		if err != nil {
			return nil, err
		}

		nameBytes := []byte(name)
		offset := uint32(len(out))

		header := make([]byte, localHeaderLen)
		binary.LittleEndian.PutUint32(header[0:], localHeaderSig)
		binary.LittleEndian.PutUint16(header[4:], versionNeeded)
		binary.LittleEndian.PutUint16(header[6:], flagUTF8Names)
		binary.LittleEndian.PutUint16(header[8:], methodDeflate)
		binary.LittleEndian.PutUint16(header[10:], tm)
		binary.LittleEndian.PutUint16(header[12:], date)
		binary.LittleEndian.PutUint32(header[14:], crc)
		binary.LittleEndian.PutUint32(header[18:], uint32(len(body)))
		binary.LittleEndian.PutUint32(header[22:], uint32(len(entry.Data)))
		binary.LittleEndian.PutUint16(header[26:], uint16(len(nameBytes)))
		binary.LittleEndian.PutUint16(header[28:], 0) // extra field length

		out = append(out, header...)
		out = append(out, nameBytes...)
		out = append(out, body...)

		members = append(members, memberRecord{
			name:        nameBytes,
			crc:         crc,
			method:      methodDeflate,
			compressed:  uint32(len(body)),
			uncompressed: uint32(len(entry.Data)),
			offset:      offset,
		})
	}

	cdOffset := uint32(len(out))
	for _, m := range members {
		header := make([]byte, centralHeaderLen)
		binary.LittleEndian.PutUint32(header[0:], centralHeaderSig)
		binary.LittleEndian.PutUint16(header[4:], versionNeeded) // version made by
		binary.LittleEndian.PutUint16(header[6:], versionNeeded)
		binary.LittleEndian.PutUint16(header[8:], flagUTF8Names)
		binary.LittleEndian.PutUint16(header[10:], m.method)
		binary.LittleEndian.PutUint16(header[12:], tm)
		binary.LittleEndian.PutUint16(header[14:], date)
		binary.LittleEndian.PutUint32(header[16:], m.crc)
		binary.LittleEndian.PutUint32(header[20:], m.compressed)
		binary.LittleEndian.PutUint32(header[24:], m.uncompressed)
		binary.LittleEndian.PutUint16(header[28:], uint16(len(m.name)))
		// extra, comment, disk start, internal and external attrs all zero
		binary.LittleEndian.PutUint32(header[42:], m.offset)

		out = append(out, header...)
		out = append(out, m.name...)
	}
	cdSize := uint32(len(out)) - cdOffset

	eocd := make([]byte, eocdLen)
	binary.LittleEndian.PutUint32(eocd[0:], eocdSig)
	binary.LittleEndian.PutUint16(eocd[8:], uint16(len(members))) // entries on this disk
	binary.LittleEndian.PutUint16(eocd[10:], uint16(len(members)))
	binary.LittleEndian.PutUint32(eocd[12:], cdSize)
	binary.LittleEndian.PutUint32(eocd[16:], cdOffset)
	out = append(out, eocd...)

	return out, nil
}

// findEOCD locates the end-of-central-directory record by scanning backward
// from the end of data. Returns -1 if no record is found within the region
// the format allows (trailer plus a comment of at most 64KB).
func findEOCD(data []byte) int {
	if len(data) < eocdLen {
		return -1
	}
	floor := len(data) - eocdLen - maxCommentLen
	if floor < 0 {
		floor = 0
	}
	for i := len(data) - eocdLen; i >= floor; i-- {
		if binary.LittleEndian.Uint32(data[i:]) == eocdSig {
			return i
		}
	}
	return -1
}

// Extract parses a ZIP file and returns its members as a name-to-content
// map. Returns nil for anything structurally unsound: no end record, a
// central directory that runs past the buffer, encrypted members, unsupported
// compression methods, offset arithmetic outside the input, or a member whose
// content fails its stored CRC. Members with unsafe names are dropped.
func Extract(data []byte) map[string][]byte {
	eocd := findEOCD(data)
	if eocd < 0 {
		return nil
	}

	count := int(binary.LittleEndian.Uint16(data[eocd+10:]))
	cdSize := int(binary.LittleEndian.Uint32(data[eocd+12:]))
	cdOffset := int(binary.LittleEndian.Uint32(data[eocd+16:]))
	if cdOffset < 0 || cdSize < 0 || cdOffset+cdSize > len(data) {
		return nil
	}

	result := make(map[string][]byte)
	pos := cdOffset
	for i := 0; i < count; i++ {
		if pos+centralHeaderLen > len(data) {
			return nil
		}
		if binary.LittleEndian.Uint32(data[pos:]) != centralHeaderSig {
			return nil
		}

		flags := binary.LittleEndian.Uint16(data[pos+8:])
		method := binary.LittleEndian.Uint16(data[pos+10:])
		crc := binary.LittleEndian.Uint32(data[pos+16:])
		nameLen := int(binary.LittleEndian.Uint16(data[pos+28:]))
		extraLen := int(binary.LittleEndian.Uint16(data[pos+30:]))
		commentLen := int(binary.LittleEndian.Uint16(data[pos+32:]))
		localOffset := int(binary.LittleEndian.Uint32(data[pos+42:]))

		if flags&flagEncrypted != 0 {
			return nil
		}
		if method != methodStored && method != methodDeflate {
			return nil
		}
		if pos+centralHeaderLen+nameLen > len(data) {
			return nil
		}
		name := string(data[pos+centralHeaderLen : pos+centralHeaderLen+nameLen])
		pos += centralHeaderLen + nameLen + extraLen + commentLen

		// The local header's sizes are the authoritative ones; a crafted
		// central directory must not steer reads outside the member body.
		if localOffset < 0 || localOffset+localHeaderLen > len(data) {
			return nil
		}
		if binary.LittleEndian.Uint32(data[localOffset:]) != localHeaderSig {
			return nil
		}
		compressedSize := int(binary.LittleEndian.Uint32(data[localOffset+18:]))
		localNameLen := int(binary.LittleEndian.Uint16(data[localOffset+26:]))
		localExtraLen := int(binary.LittleEndian.Uint16(data[localOffset+28:]))

		bodyStart := localOffset + localHeaderLen + localNameLen + localExtraLen
		if bodyStart < 0 || compressedSize < 0 || bodyStart+compressedSize > len(data) {
			return nil
		}
		body := data[bodyStart : bodyStart+compressedSize]

		var content []byte
		if method == methodDeflate {
			inflated, err := compress.InflateRaw(body)
			if err != nil {
				return nil
			}
			content = inflated
		} else {
			content = append([]byte(nil), body...)
		}

		if Checksum(content) != crc {
			return nil
		}
		if !SafeName(name) {
			continue
		}
		result[name] = content
	}

	return result
}
