package refresh

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"io"
	"time"
)

const recordVersion1 = 1

// Record is one stored refresh-token entry. The plaintext token never
// appears here; the store keys records by token hash.
type Record struct {
	AccountID string
	ExpiresAt int64
	Revoked   bool
}

// HashToken derives the storage key for a plaintext refresh token.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func (r *Record) expired(now time.Time) bool {
	return now.Unix() >= r.ExpiresAt
}

func encodeRecord(record *Record) ([]byte, error) {
	if len(record.AccountID) == 0 || len(record.AccountID) > 255 {
		return nil, errors.New("refresh record account id length invalid")
	}

	var buf bytes.Buffer
	buf.WriteByte(recordVersion1)
	if record.Revoked {
		buf.WriteByte(1)
	} else {
		buf.WriteByte(0)
	}
	buf.WriteByte(byte(len(record.AccountID)))
	buf.WriteString(record.AccountID)
	if err := binary.Write(&buf, binary.BigEndian, record.ExpiresAt); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func decodeRecord(data []byte) (*Record, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	if version != recordVersion1 {
		return nil, errors.New("invalid refresh record version")
	}

	revoked, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	if revoked > 1 {
		return nil, errors.New("invalid refresh record revoked flag")
	}

	aidLen, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	if aidLen == 0 {
		return nil, errors.New("invalid refresh record account id")
	}
	aid := make([]byte, aidLen)
	if _, err := io.ReadFull(reader, aid); err != nil {
		return nil, err
	}

	record := &Record{
		AccountID: string(aid),
		Revoked:   revoked == 1,
	}
	if err := binary.Read(reader, binary.BigEndian, &record.ExpiresAt); err != nil {
		return nil, err
	}

	return record, nil
}
