package idformat

import (
	"strconv"
	"strings"
	"time"
)

// FormatDate renders t with a custom date pattern of the kind users type into
// id formats: yyyy, yy, MMMM, MMM, MM, M, dddd, ddd, dd, d, HH, H, hh, h,
// mm, m, ss, s, f..fffffff, F..FFFFFFF, tt, t, K, z, zz, zzz. Text inside
// single or double quotes and characters after a backslash are copied
// verbatim, as is any other character.
func FormatDate(t time.Time, pattern string) string {
	var b strings.Builder
	rs := []rune(pattern)
	for i := 0; i < len(rs); {
		c := rs[i]
		switch c {
		case '\'', '"':
			end := i + 1
			for end < len(rs) && rs[end] != c {
				end++
			}
			b.WriteString(string(rs[i+1 : end]))
			i = end + 1
			continue
		case '\\':
			if i+1 < len(rs) {
				b.WriteRune(rs[i+1])
			}
			i += 2
			continue
		}

		n := 1
		for i+n < len(rs) && rs[i+n] == c {
			n++
		}
		if !writeToken(&b, t, c, n) {
			b.WriteString(string(rs[i : i+n]))
		}
		i += n
	}
	return b.String()
}

func writeToken(b *strings.Builder, t time.Time, c rune, n int) bool {
	switch c {
	case 'y':
		switch {
		case n <= 2:
			writePadded(b, t.Year()%100, n)
		default:
			writePadded(b, t.Year(), n)
		}
	case 'M':
		switch n {
		case 1, 2:
			writePadded(b, int(t.Month()), n)
		case 3:
			b.WriteString(t.Month().String()[:3])
		default:
			b.WriteString(t.Month().String())
		}
	case 'd':
		switch n {
		case 1, 2:
			writePadded(b, t.Day(), n)
		case 3:
			b.WriteString(t.Weekday().String()[:3])
		default:
			b.WriteString(t.Weekday().String())
		}
	case 'H':
		writePadded(b, t.Hour(), min(n, 2))
	case 'h':
		h := t.Hour() % 12
		if h == 0 {
			h = 12
		}
		writePadded(b, h, min(n, 2))
	case 'm':
		writePadded(b, t.Minute(), min(n, 2))
	case 's':
		writePadded(b, t.Second(), min(n, 2))
	case 'f', 'F':
		if n > 7 {
			return false
		}
		frac := strconv.Itoa(t.Nanosecond() + 1e9)[1 : 1+n]
		if c == 'F' {
			frac = strings.TrimRight(frac, "0")
		}
		b.WriteString(frac)
	case 't':
		ampm := "AM"
		if t.Hour() >= 12 {
			ampm = "PM"
		}
		if n == 1 {
			ampm = ampm[:1]
		}
		b.WriteString(ampm)
	case 'K':
		writeOffset(b, t, 3, true)
	case 'z':
		writeOffset(b, t, min(n, 3), false)
	default:
		return false
	}
	return true
}

func writePadded(b *strings.Builder, v, width int) {
	s := strconv.Itoa(v)
	for i := len(s); i < width; i++ {
		b.WriteByte('0')
	}
	b.WriteString(s)
}

func writeOffset(b *strings.Builder, t time.Time, n int, zulu bool) {
	_, off := t.Zone()
	if zulu && off == 0 {
		b.WriteByte('Z')
		return
	}
	sign := byte('+')
	if off < 0 {
		sign = '-'
		off = -off
	}
	b.WriteByte(sign)
	hours, minutes := off/3600, (off%3600)/60
	switch n {
	case 1:
		b.WriteString(strconv.Itoa(hours))
	case 2:
		writePadded(b, hours, 2)
	default:
		writePadded(b, hours, 2)
		b.WriteByte(':')
		writePadded(b, minutes, 2)
	}
}
