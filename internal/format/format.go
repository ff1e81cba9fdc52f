// Package format はインドネシア語ロケールでの金額・日時の表示用フォーマットを提供する。
package format

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// placeholder は日時が空または不正な場合の表示。
const placeholder = "-"

// shortMonths はインドネシア語の月の略称。
var shortMonths = [...]string{
	"Jan", "Feb", "Mar", "Apr", "Mei", "Jun",
	"Jul", "Agu", "Sep", "Okt", "Nov", "Des",
}

// layouts はバックエンドが返す日時文字列として受け付ける形式。
var layouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// Formatter はタイムゾーンと現在時刻を指定できるフォーマッタ。
type Formatter struct {
	printer *message.Printer
	loc     *time.Location
	now     func() time.Time
}

// Option はFormatterの設定を変更する関数。
type Option func(*Formatter)

// WithLocation は日時の表示に使用するタイムゾーンを設定する。
func WithLocation(loc *time.Location) Option {
	return func(f *Formatter) {
		if loc != nil {
			f.loc = loc
		}
	}
}

// WithClock は相対時刻の基準となる現在時刻の取得関数を設定する。
func WithClock(now func() time.Time) Option {
	return func(f *Formatter) {
		if now != nil {
			f.now = now
		}
	}
}

// New は新しいFormatterを生成する。
func New(opts ...Option) *Formatter {
	f := &Formatter{
		printer: message.NewPrinter(language.Indonesian),
		loc:     time.Local,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

var std = New()

// Currency はstdでCurrencyを呼び出す。
func Currency(amount string) string { return std.Currency(amount) }

// Number はstdでNumberを呼び出す。
func Number(amount string) string { return std.Number(amount) }

// Date はstdでDateを呼び出す。
func Date(s string) string { return std.Date(s) }

// DateTime はstdでDateTimeを呼び出す。
func DateTime(s string) string { return std.DateTime(s) }

// RelativeTime はstdでRelativeTimeを呼び出す。
func RelativeTime(s string) string { return std.RelativeTime(s) }

// Currency は金額を小数点以下なしのルピア表記（例: "Rp 150.000"）にする。
// 空文字列や数値として解釈できない値は "Rp 0" になる。
func (f *Formatter) Currency(amount string) string {
	v, ok := parseAmount(amount)
	if !ok {
		return "Rp 0"
	}
	n := int64(math.Round(v))
	if n < 0 {
		return "-Rp " + f.printer.Sprintf("%d", -n)
	}
	return "Rp " + f.printer.Sprintf("%d", n)
}

// Number は数値を桁区切り付きで表示する。小数は3桁まで表示する。
// 数値として解釈できない値は "0" になる。
func (f *Formatter) Number(amount string) string {
	v, ok := parseAmount(amount)
	if !ok {
		return "0"
	}
	return f.printer.Sprint(number.Decimal(v, number.MaxFractionDigits(3)))
}

// Date は日付を "2 Jan 2025" の形式で表示する。空または不正な値は "-" になる。
func (f *Formatter) Date(s string) string {
	t, ok := f.parse(s)
	if !ok {
		return placeholder
	}
	return f.date(t)
}

// DateTime は日時を "2 Jan 2025, 14.30" の形式で表示する。
func (f *Formatter) DateTime(s string) string {
	t, ok := f.parse(s)
	if !ok {
		return placeholder
	}
	return fmt.Sprintf("%s, %02d.%02d", f.date(t), t.Hour(), t.Minute())
}

// RelativeTime は現在時刻からの経過時間を表示する。
// 7日以上前の場合はDateと同じ形式になる。
func (f *Formatter) RelativeTime(s string) string {
	t, ok := f.parse(s)
	if !ok {
		return placeholder
	}
	diff := f.now().Sub(t)
	switch {
	case diff < time.Minute:
		return "Baru saja"
	case diff < time.Hour:
		return fmt.Sprintf("%d menit lalu", int(diff/time.Minute))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%d jam lalu", int(diff/time.Hour))
	case diff < 7*24*time.Hour:
		return fmt.Sprintf("%d hari lalu", int(diff/(24*time.Hour)))
	default:
		return f.date(t)
	}
}

func (f *Formatter) date(t time.Time) string {
	return fmt.Sprintf("%d %s %d", t.Day(), shortMonths[t.Month()-1], t.Year())
}

// parse は日時文字列を解釈し、表示用のタイムゾーンに変換する。
func (f *Formatter) parse(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, s, f.loc); err == nil {
			return t.In(f.loc), true
		}
	}
	return time.Time{}, false
}

// parseAmount はバックエンドの10進文字列を数値に変換する。
func parseAmount(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
