package calllog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/i474232898/weatherpi-dashboard/internal/logger"
)

const callListXML = `<?xml version="1.0" encoding="UTF-8"?>
<root>
<timestamp>1700000000</timestamp>
<Call><Id>3</Id><Type>2</Type><Caller>01234567890</Caller><Called>SIP: 0987</Called><CalledNumber>0987</CalledNumber><Name></Name><Numbertype>sip</Numbertype><Device></Device><Port>-1</Port><Date>14.03.25 18:07</Date><Duration>0:00</Duration><Count></Count><Path /></Call>
<Call><Id>2</Id><Type>1</Type><Caller>0301111</Caller><Called>SIP: 0987</Called><CalledNumber>0987</CalledNumber><Name>Anna</Name><Numbertype>sip</Numbertype><Device>Phone</Device><Port>10</Port><Date>13.03.25 09:45</Date><Duration>0:12</Duration><Count></Count><Path /></Call>
<Call><Id>1</Id><Type>3</Type><Caller>0987</Caller><Called>0302222</Called><CalledNumber>0302222</CalledNumber><Name></Name><Numbertype>sip</Numbertype><Device>Phone</Device><Port>10</Port><Date>01.01.25 00:01</Date><Duration>0:03</Duration><Count></Count><Path /></Call>
</root>`

func fakeRouter(t *testing.T, list string) *httptest.Server {
	t.Helper()
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case controlPath:
			if r.Method != http.MethodPost {
				t.Errorf("expected POST, got %s", r.Method)
			}
			if got := r.Header.Get("SOAPAction"); got != serviceType+"#GetCallList" {
				t.Errorf("unexpected SOAPAction %q", got)
			}
			body, _ := io.ReadAll(r.Body)
			if !strings.Contains(string(body), "GetCallList") {
				t.Errorf("envelope does not name the action: %s", body)
			}
			fmt.Fprintf(w, `<?xml version="1.0"?>
<s:Envelope xmlns:s="http://schemas.xmlsoap.org/soap/envelope/"><s:Body>
<u:GetCallListResponse xmlns:u="%s"><NewCallListURL>%s/calllist.lua?sid=abc</NewCallListURL></u:GetCallListResponse>
</s:Body></s:Envelope>`, serviceType, srv.URL)
		case "/calllist.lua":
			if r.URL.Query().Get("sid") != "abc" {
				t.Errorf("signed url lost its sid")
			}
			fmt.Fprint(w, list)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClientFetch(t *testing.T) {
	srv := fakeRouter(t, callListXML)
	c := NewClient(Config{Address: srv.URL, Username: "u", Password: "p", Backlog: 2}, nil)

	records, err := c.Fetch(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}

	want := Record{Type: Missed, Number: "01234567890", Time: Timestamp{Day: 14, Month: 3, Year: 2025, Hour: 18, Minute: 7}}
	if records[0] != want {
		t.Fatalf("first record = %+v, want %+v", records[0], want)
	}
	if records[1].Type != Answered || records[1].Number != "0301111" {
		t.Fatalf("second record = %+v", records[1])
	}
}

func TestClientFetchBacklogLargerThanList(t *testing.T) {
	srv := fakeRouter(t, callListXML)
	c := NewClient(Config{Address: srv.URL, Backlog: 10}, nil)

	records, err := c.Fetch(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 3 || records[2].Type != Outgoing {
		t.Fatalf("unexpected records %+v", records)
	}
}

func TestParseCallListErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{name: "not xml", doc: "<root><Call>"},
		{name: "bad type", doc: "<root><ts/><Call><Type>x</Type><Date>14.03.25 18:07</Date></Call></root>"},
		{name: "bad date", doc: "<root><ts/><Call><Type>1</Type><Date>2025-03-14</Date></Call></root>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := parseCallList(strings.NewReader(tt.doc), 5); !errors.Is(err, ErrParse) {
				t.Fatalf("expected ErrParse, got %v", err)
			}
		})
	}
}

func TestCallTypeString(t *testing.T) {
	tests := map[CallType]string{
		Answered:       "answered",
		Missed:         "missed",
		Outgoing:       "outgoing",
		ActiveIncoming: "active_incoming",
		Refused:        "refused",
		ActiveOutgoing: "active_outgoing",
		CallType(4):    "type_4",
	}
	for ct, want := range tests {
		if got := ct.String(); got != want {
			t.Errorf("CallType(%d).String() = %q, want %q", int(ct), got, want)
		}
	}
}

func TestBaseURL(t *testing.T) {
	if got := baseURL("192.168.178.1"); got != "http://192.168.178.1:49000" {
		t.Fatalf("got %q", got)
	}
	if got := baseURL("http://fritz.box:49000/"); got != "http://fritz.box:49000" {
		t.Fatalf("got %q", got)
	}
}

type stubFetcher struct {
	records []Record
	err     error
}

func (s stubFetcher) Fetch(ctx context.Context) ([]Record, error) { return s.records, s.err }

func TestPollerPublishes(t *testing.T) {
	now := func() time.Time { return time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC) }
	p := NewPoller(stubFetcher{records: []Record{{Type: Missed, Number: "1"}}}, logger.Nop(), now)

	if err := p.Poll(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	res := <-p.Updates()
	if res.Err != nil || len(res.Records) != 1 || !res.At.Equal(now()) {
		t.Fatalf("unexpected result %+v", res)
	}

	boom := errors.New("boom")
	p = NewPoller(stubFetcher{err: boom}, logger.Nop(), now)
	if err := p.Poll(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if res := <-p.Updates(); !errors.Is(res.Err, boom) {
		t.Fatalf("error not published")
	}
}
