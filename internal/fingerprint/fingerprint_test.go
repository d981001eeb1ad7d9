package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rawMessage(lines ...string) []byte {
	return []byte(strings.Join(lines, "\r\n"))
}

func extract(t *testing.T, raw []byte, f Field) Value {
	t.Helper()
	v, err := Extract(ParseMessage(raw), f)
	require.NoError(t, err)
	return v
}

func TestParseFields(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []Field
		wantErr bool
	}{
		{name: "defaults", input: "from,to,date,subject,body_lines", want: DefaultFields},
		{name: "spaces and case", input: " From , SUBJECT ", want: []Field{FieldFrom, FieldSubject}},
		{name: "repeated", input: "from,from,to", want: []Field{FieldFrom, FieldTo}},
		{name: "unknown", input: "from,sender", wantErr: true},
		{name: "empty", input: "", wantErr: true},
		{name: "only commas", input: ",,", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFieldList(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestUnknownFieldErrorListsValidNames(t *testing.T) {
	_, err := ParseField("sender")
	var unknown *UnknownFieldError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "sender", unknown.Name)
	assert.Contains(t, err.Error(), "body_hash")
}

func TestFieldsAreSortedAndComplete(t *testing.T) {
	assert.Equal(t, []string{
		"body_hash", "body_lines", "body_size", "date", "from", "subject", "to",
	}, FieldNames())
}

func TestExtractFrom(t *testing.T) {
	tests := []struct {
		name string
		from []string
		want string
	}{
		{name: "display name", from: []string{"Alice <a@x.com>"}, want: "a@x.com"},
		{name: "bare", from: []string{"a@x.com"}, want: "a@x.com"},
		{name: "uppercase", from: []string{"\"Bob B.\" <Bob@Example.COM>"}, want: "bob@example.com"},
		{name: "encoded display name", from: []string{"=?utf-8?q?J=C3=B6rg?= <joerg@example.com>"}, want: "joerg@example.com"},
		{name: "several headers", from: []string{"b@y.com", "a@x.com, B@y.com"}, want: "a@x.com b@y.com"},
		{name: "malformed list", from: []string{"Alice <a@x.com>, broken <<b@y.com"}, want: "a@x.com b@y.com"},
		{name: "comment form", from: []string{"a@x.com (Alice) garbage,,"}, want: "a@x.com"},
		{name: "missing", from: nil, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lines := []string{}
			for _, f := range tt.from {
				lines = append(lines, "From: "+f)
			}
			lines = append(lines, "Subject: x", "", "body")
			got := extract(t, rawMessage(lines...), FieldFrom)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestExtractToIsOrderIndependent(t *testing.T) {
	a := rawMessage(
		"To: Carol <carol@x.com>",
		"Cc: bob@x.com, alice@x.com",
		"Bcc: dave@x.com",
		"", "body",
	)
	b := rawMessage(
		"Bcc: Dave <DAVE@x.com>",
		"To: carol@x.com",
		"Cc: alice@x.com",
		"Cc: bob@x.com",
		"", "body",
	)

	va := extract(t, a, FieldTo)
	vb := extract(t, b, FieldTo)
	assert.Equal(t, "alice@x.com bob@x.com carol@x.com dave@x.com", va.String())
	assert.Equal(t, va, vb)
}

func TestExtractToUndisclosedRecipientsIsEmpty(t *testing.T) {
	v := extract(t, rawMessage("To: undisclosed-recipients:;", "", "body"), FieldTo)
	assert.True(t, v.IsEmpty())
}

func TestExtractSubject(t *testing.T) {
	tests := []struct {
		name    string
		headers []string
		want    string
	}{
		{name: "plain", headers: []string{"Subject: Hello"}, want: "hello"},
		{name: "whitespace runs", headers: []string{"Subject:   Hello \t  World  "}, want: "hello world"},
		{name: "q encoded", headers: []string{"Subject: =?utf-8?q?Hello?="}, want: "hello"},
		{name: "b encoded latin1", headers: []string{"Subject: =?ISO-8859-1?B?aGVsbG8=?="}, want: "hello"},
		{name: "mixed words", headers: []string{"Subject: Re: =?utf-8?q?Caf=C3=A9?= menu"}, want: "re: café menu"},
		{name: "unknown charset valid utf8", headers: []string{"Subject: =?x-unknown?q?hello?="}, want: "hello"},
		{name: "unknown charset invalid bytes", headers: []string{"Subject: =?x-unknown?q?caf=E9?="}, want: ""},
		{
			name:    "8bit with message charset",
			headers: []string{"Subject: caf\xe9", "Content-Type: text/plain; charset=iso-8859-1"},
			want:    "café",
		},
		{name: "8bit without charset", headers: []string{"Subject: caf\xe9"}, want: ""},
		{name: "missing", headers: []string{"From: a@x.com"}, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lines := append(append([]string{}, tt.headers...), "", "body")
			got := extract(t, rawMessage(lines...), FieldSubject)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestNormalizationIsIdempotent(t *testing.T) {
	for _, s := range []string{"  Re:  Hello\tWorld ", "café  MENU", ""} {
		once := normalizeText(s)
		assert.Equal(t, once, normalizeText(once))
	}

	once, ok := normalizeAddresses([]string{"Bob <B@y.com>, a@x.com", "c@z.com"}, "")
	require.True(t, ok)
	twice, ok := normalizeAddresses([]string{once}, "")
	require.True(t, ok)
	assert.Equal(t, once, twice)
}

func TestExtractDate(t *testing.T) {
	tests := []struct {
		name string
		date string
		want string
	}{
		{name: "rfc5322", date: "Tue, 1 Jul 2003 10:52:37 +0200", want: "2003-07-01"},
		{name: "keeps header offset", date: "Tue, 1 Jul 2003 23:30:00 -0700", want: "2003-07-01"},
		{name: "no weekday", date: "1 Jul 2003 10:52:37 +0200", want: "2003-07-01"},
		{name: "trailing comment", date: "Tue, 1 Jul 2003 10:52:37 +0200 (CEST)", want: "2003-07-01"},
		{name: "asctime", date: "Tue Jul  1 10:52:37 2003", want: "2003-07-01"},
		{name: "garbage", date: "not a date", want: ""},
		{name: "empty", date: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := extract(t, rawMessage("Date: "+tt.date, "", "body"), FieldDate)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestBodyFields(t *testing.T) {
	raw := rawMessage(
		"From: a@x.com",
		"",
		"  Hello  world ",
		"",
		"\t",
		"second line",
	)
	m := ParseMessage(raw)

	assert.Equal(t, []string{"Helloworld", "secondline"}, m.BodyLines())

	size, err := Extract(m, FieldBodySize)
	require.NoError(t, err)
	assert.Equal(t, int64(20), size.Int())

	lines, err := Extract(m, FieldBodyLines)
	require.NoError(t, err)
	assert.Equal(t, int64(2), lines.Int())

	sum := sha256.Sum256([]byte("Helloworldsecondline"))
	hash, err := Extract(m, FieldBodyHash)
	require.NoError(t, err)
	assert.Equal(t, hex.EncodeToString(sum[:]), hash.String())
}

func TestBodyLinesMultipart(t *testing.T) {
	raw := rawMessage(
		"From: a@x.com",
		`Content-Type: multipart/mixed; boundary="XYZ"`,
		"",
		"This is the preamble.",
		"--XYZ",
		"Content-Type: text/plain",
		"",
		"Hello  world",
		"",
		"--XYZ",
		"Content-Type: application/octet-stream",
		"Content-Transfer-Encoding: base64",
		"",
		"aGVsbG8=",
		"--XYZ",
		"Content-Type: message/rfc822",
		"",
		"Subject: inner",
		"",
		"inner body",
		"--XYZ--",
		"epilogue",
	)

	assert.Equal(t, []string{"Helloworld", "aGVsbG8=", "innerbody"}, ParseMessage(raw).BodyLines())
}

func TestBodyLinesBrokenBoundaryFallsBackToWholeBody(t *testing.T) {
	raw := rawMessage(
		`Content-Type: multipart/mixed; boundary="missing"`,
		"",
		"just text",
	)
	assert.Equal(t, []string{"justtext"}, ParseMessage(raw).BodyLines())
}

func TestHeadersOnlyMessage(t *testing.T) {
	m := ParseMessage([]byte("Subject: Hi there"))
	assert.Equal(t, "Hi there", m.Get("Subject"))
	assert.Empty(t, m.BodyLines())
}

func TestParseMessageKeepsHeadersBeforeMalformedLine(t *testing.T) {
	tests := []struct {
		name      string
		raw       []byte
		from      string
		subject   string
		date      string
		bodyLines int64
	}{
		{
			name: "line without colon",
			raw: rawMessage(
				"From: Alice <a@x.com>",
				"Subject: Hello",
				"Date: Tue, 1 Jul 2003 10:52:37 +0200",
				"this line has no colon",
				"",
				"body",
			),
			from: "a@x.com", subject: "hello", date: "2003-07-01", bodyLines: 2,
		},
		{
			name: "folded value before bad line",
			raw: rawMessage(
				"From: a@x.com",
				"Subject: Hello",
				"\tthere",
				"bad header line",
				"",
				"body",
			),
			from: "a@x.com", subject: "hello there", date: "", bodyLines: 2,
		},
		{
			name: "leading continuation",
			raw: rawMessage(
				" orphan continuation",
				"From: a@x.com",
				"",
				"body",
			),
			from: "", subject: "", date: "", bodyLines: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := ParseMessage(tt.raw)
			got := func(f Field) Value {
				v, err := Extract(m, f)
				require.NoError(t, err)
				return v
			}
			assert.Equal(t, tt.from, got(FieldFrom).String())
			assert.Equal(t, tt.subject, got(FieldSubject).String())
			assert.Equal(t, tt.date, got(FieldDate).String())
			assert.Equal(t, tt.bodyLines, got(FieldBodyLines).Int())
		})
	}
}

func TestMalformedHeaderStillGroupsWithDefaults(t *testing.T) {
	b, err := NewBuilder(DefaultFields)
	require.NoError(t, err)

	res := b.BuildRaw(rawMessage(
		"From: Alice <a@x.com>",
		"To: b@y.com",
		"Subject: Hello",
		"Date: Tue, 1 Jul 2003 10:52:37 +0200",
		"this line has no colon",
		"",
		"body",
	))
	assert.Equal(t, 0, res.Failures)
}

func TestStripSpaceKeepsInvalidBytes(t *testing.T) {
	assert.Equal(t, "a\xffb", stripSpace(" a \xff b "))
}

func TestBuilderRecordAndFingerprint(t *testing.T) {
	b, err := NewBuilder([]Field{FieldSubject, FieldFrom})
	require.NoError(t, err)

	res := b.BuildRaw(rawMessage("From: Alice <a@x.com>", "Subject: Hi", "", "body"))

	assert.Equal(t, []Field{FieldFrom, FieldSubject}, res.Record.Fields())
	assert.Equal(t, "|a@x.com|hi|", res.Record.Canonical())
	assert.Equal(t, Fingerprint(sha256.Sum256([]byte("|a@x.com|hi|"))), res.Fingerprint)
	assert.Equal(t, 0, res.Failures)
}

func TestBuilderIsDeterministic(t *testing.T) {
	b, err := NewBuilder(Fields())
	require.NoError(t, err)

	raw := rawMessage(
		"From: Alice <a@x.com>",
		"To: b@y.com",
		"Date: Tue, 1 Jul 2003 10:52:37 +0200",
		"Subject: Hello",
		"",
		"body",
	)
	first := b.BuildRaw(raw)
	second := b.BuildRaw(raw)
	assert.Equal(t, first.Fingerprint, second.Fingerprint)
	assert.Equal(t, first.Record.Canonical(), second.Record.Canonical())
}

func TestFingerprintIgnoresRequestOrder(t *testing.T) {
	raw := rawMessage("From: a@x.com", "Subject: Hi", "", "body")

	b1, err := NewBuilder([]Field{FieldFrom, FieldSubject})
	require.NoError(t, err)
	b2, err := NewBuilder([]Field{FieldSubject, FieldFrom})
	require.NoError(t, err)

	assert.Equal(t, b1.BuildRaw(raw).Fingerprint, b2.BuildRaw(raw).Fingerprint)
}

func TestFingerprintChangesWithAnyValue(t *testing.T) {
	b, err := NewBuilder([]Field{FieldFrom, FieldSubject})
	require.NoError(t, err)

	a := b.BuildRaw(rawMessage("From: a@x.com", "Subject: Hi", "", "body"))
	c := b.BuildRaw(rawMessage("From: a@x.com", "Subject: Hi!", "", "body"))
	assert.NotEqual(t, a.Fingerprint, c.Fingerprint)
}

func TestEncodedSubjectMatchesPlain(t *testing.T) {
	b, err := NewBuilder(DefaultFields)
	require.NoError(t, err)

	common := []string{
		"From: Alice <a@x.com>",
		"To: b@y.com",
		"Date: Tue, 1 Jul 2003 10:52:37 +0200",
	}
	plain := append(append([]string{}, common...), "Subject: hello", "", "body")
	encoded := append(append([]string{}, common...), "Subject: =?utf-8?B?aGVsbG8=?=", "", "body")

	assert.Equal(t, b.BuildRaw(rawMessage(plain...)).Fingerprint, b.BuildRaw(rawMessage(encoded...)).Fingerprint)
}

func TestFailuresCountEmptyValues(t *testing.T) {
	b, err := NewBuilder([]Field{FieldDate, FieldBodyLines})
	require.NoError(t, err)

	res := b.BuildRaw(rawMessage("From: a@x.com", "Date: someday", "", ""))
	assert.Equal(t, 2, res.Failures)
}

func TestBuilderReportsUnreadableFields(t *testing.T) {
	b, err := NewBuilder([]Field{FieldSubject, FieldDate, FieldFrom, FieldBodyHash})
	require.NoError(t, err)

	res := b.BuildRaw(rawMessage("From: a@x.com", "Date: someday", "", ""))
	assert.Equal(t, []Field{FieldBodyHash, FieldDate, FieldSubject}, res.Unreadable)

	res = b.BuildRaw(rawMessage("From: a@x.com", "Subject: Hi", "Date: Tue, 1 Jul 2003 10:52:37 +0200", "", "body"))
	assert.Empty(t, res.Unreadable)
}

func TestEmptyBodyHashIsNotAFailure(t *testing.T) {
	b, err := NewBuilder([]Field{FieldBodyHash})
	require.NoError(t, err)

	res := b.BuildRaw(rawMessage("From: a@x.com", "", ""))
	assert.Equal(t, 0, res.Failures)
}

func TestNewBuilderRejectsBadFields(t *testing.T) {
	_, err := NewBuilder(nil)
	assert.Error(t, err)

	_, err = NewBuilder([]Field{"nope"})
	var unknown *UnknownFieldError
	assert.ErrorAs(t, err, &unknown)
}

func TestParseFingerprintRoundTrip(t *testing.T) {
	fp := Fingerprint(sha256.Sum256([]byte("x")))
	got, err := ParseFingerprint(fp.String())
	require.NoError(t, err)
	assert.Equal(t, fp, got)

	_, err = ParseFingerprint("abcd")
	assert.Error(t, err)
}

func TestValue(t *testing.T) {
	assert.True(t, StringValue("").IsEmpty())
	assert.True(t, IntValue(0).IsEmpty())
	assert.False(t, IntValue(3).IsEmpty())
	assert.Equal(t, "3", IntValue(3).String())
	assert.Equal(t, int64(0), IntValue(-4).Int())
	assert.Equal(t, KindString, Value{}.Kind())
}
