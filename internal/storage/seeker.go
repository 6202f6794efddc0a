package storage

import (
	"errors"
	"io"
)

// seeker adapts a Reader's absolute SeekSet into a full io.ReadSeeker by
// tracking the current offset itself, so a Store-backed Reader can be
// passed to callers that take an io.ReadSeeker, such as wavfmt.Parse.
type seeker struct {
	r   Reader
	pos int64
}

// AsReadSeeker wraps r as an io.ReadSeeker.
func AsReadSeeker(r Reader) io.ReadSeeker {
	return &seeker{r: r}
}

func (s *seeker) Read(p []byte) (int, error) {
	n, err := s.r.Read(p)
	s.pos += int64(n)
	return n, err
}

func (s *seeker) Seek(offset int64, whence int) (int64, error) {
	var target int64
	switch whence {
	case io.SeekStart:
		target = offset
	case io.SeekCurrent:
		target = s.pos + offset
	default:
		return 0, errors.New("storage: seek relative to end is not supported")
	}
	if err := s.r.SeekSet(target); err != nil {
		return 0, err
	}
	s.pos = target
	return target, nil
}
