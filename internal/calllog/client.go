package calllog

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/icholy/digest"

	"github.com/i474232898/weatherpi-dashboard/internal/common"
)

const (
	controlPath = "/upnp/control/x_contact"
	serviceType = "urn:dslforum-org:service:X_AVM-DE_OnTel:1"
	dateLayout  = "02.01.06 15:04"
	defaultPort = "49000"
)

const getCallListEnvelope = `<?xml version="1.0" encoding="utf-8"?>
<s:Envelope xmlns:s="http://schemas.xmlsoap.org/soap/envelope/" s:encodingStyle="http://schemas.xmlsoap.org/soap/encoding/">
<s:Body><u:GetCallList xmlns:u="` + serviceType + `"></u:GetCallList></s:Body>
</s:Envelope>`

// Config for the router's TR-064 interface.
type Config struct {
	// Address is a host ("192.168.178.1") or a full base URL.
	Address  string
	Username string
	Password string
	Backlog  int
	Timeout  time.Duration
}

// Client reads the call list from a Fritz!Box.
type Client struct {
	baseURL string
	backlog int
	httpCfg common.HTTPClientConfig
}

// NewClient builds a client that answers the router's digest challenge.
// base may be nil to use http.DefaultTransport.
func NewClient(cfg Config, base http.RoundTripper) *Client {
	if cfg.Backlog <= 0 {
		cfg.Backlog = 1
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	httpClient := &http.Client{
		Timeout: cfg.Timeout,
		Transport: &digest.Transport{
			Username:  cfg.Username,
			Password:  cfg.Password,
			Transport: base,
		},
	}

	return &Client{
		baseURL: baseURL(cfg.Address),
		backlog: cfg.Backlog,
		httpCfg: common.HTTPClientConfig{
			Client:  httpClient,
			Breaker: common.NewBreaker("fritzbox"),
		},
	}
}

func baseURL(address string) string {
	if strings.Contains(address, "://") {
		return strings.TrimRight(address, "/")
	}
	return "http://" + address + ":" + defaultPort
}

type soapResponse struct {
	Body struct {
		Response struct {
			CallListURL string `xml:"NewCallListURL"`
		} `xml:"GetCallListResponse"`
	} `xml:"Body"`
}

// element is any child of the call list root; the first one is a timestamp.
type element struct {
	XMLName xml.Name
	Type    string `xml:"Type"`
	Caller  string `xml:"Caller"`
	Date    string `xml:"Date"`
}

type callList struct {
	Items []element `xml:",any"`
}

// Fetch returns up to the configured backlog of most recent calls.
func (c *Client) Fetch(ctx context.Context) ([]Record, error) {
	listURL, err := c.callListURL(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := common.DoRequest(ctx, c.httpCfg, func() (*http.Request, error) {
		return http.NewRequest(http.MethodGet, listURL, nil)
	})
	if err != nil {
		return nil, fmt.Errorf("get call list: %w", err)
	}
	defer resp.Body.Close()

	return parseCallList(resp.Body, c.backlog)
}

func (c *Client) callListURL(ctx context.Context) (string, error) {
	buildRequest := func() (*http.Request, error) {
		req, err := http.NewRequest(http.MethodPost, c.baseURL+controlPath, strings.NewReader(getCallListEnvelope))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", `text/xml; charset="utf-8"`)
		req.Header.Set("SOAPAction", serviceType+"#GetCallList")
		return req, nil
	}

	resp, err := common.DoRequest(ctx, c.httpCfg, buildRequest)
	if err != nil {
		return "", fmt.Errorf("GetCallList: %w", err)
	}
	defer resp.Body.Close()

	var env soapResponse
	if err := xml.NewDecoder(resp.Body).Decode(&env); err != nil {
		return "", fmt.Errorf("%w: GetCallList response: %v", ErrParse, err)
	}
	u := strings.TrimSpace(env.Body.Response.CallListURL)
	if u == "" {
		return "", fmt.Errorf("%w: GetCallList response has no NewCallListURL", ErrParse)
	}
	return u, nil
}

func parseCallList(r io.Reader, backlog int) ([]Record, error) {
	var list callList
	if err := xml.NewDecoder(r).Decode(&list); err != nil {
		return nil, fmt.Errorf("%w: call list: %v", ErrParse, err)
	}
	if len(list.Items) == 0 {
		return nil, nil
	}

	records := make([]Record, 0, backlog)
	for _, item := range list.Items[1:] {
		if len(records) == backlog {
			break
		}
		if item.XMLName.Local != "Call" {
			continue
		}

		code, err := strconv.Atoi(strings.TrimSpace(item.Type))
		if err != nil {
			return nil, fmt.Errorf("%w: call type %q", ErrParse, item.Type)
		}
		ts, err := time.Parse(dateLayout, strings.TrimSpace(item.Date))
		if err != nil {
			return nil, fmt.Errorf("%w: call date %q", ErrParse, item.Date)
		}

		records = append(records, Record{
			Type:   CallType(code),
			Number: strings.TrimSpace(item.Caller),
			Time: Timestamp{
				Day:    ts.Day(),
				Month:  int(ts.Month()),
				Year:   ts.Year(),
				Hour:   ts.Hour(),
				Minute: ts.Minute(),
			},
		})
	}
	return records, nil
}
