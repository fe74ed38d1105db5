package sigaa

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/uniead-br/sigaa-sync/internal/models"
	appErrors "github.com/uniead-br/sigaa-sync/pkg/errors"
)

const (
	enrollmentsPath = "/api/v1/sig/sigaa/matriculados"
	oauthTokenPath  = "/oauth/token"
)

// Client talks to the institutional records API. The OAuth access token is
// cached for the life of the client instance; a fresh client re-authenticates.
type Client struct {
	baseURL      string
	clientID     string
	clientSecret string
	httpClient   *http.Client

	accessToken string
}

// NewClient builds a client for the given API credentials.
func NewClient(baseURL, clientID, clientSecret string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		clientID:     clientID,
		clientSecret: clientSecret,
		httpClient:   &http.Client{Timeout: timeout},
	}
}

// FetchEnrollments returns every enrollment group for a term. Any non-success
// response is a transport error carrying the status and raw body; the caller
// treats it as fatal for the whole batch.
func (c *Client) FetchEnrollments(ctx context.Context, term models.TermKey) ([]EnrollmentGroup, error) {
	token, err := c.getAccessToken(ctx)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s%s?ano=%s&periodo=%s", c.baseURL, enrollmentsPath, term.Year, term.Period)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrTransport.Code, appErrors.ErrTransport.Status, "build enrollments request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	body, err := c.do(req, "fetch enrollments")
	if err != nil {
		return nil, err
	}

	var wire map[string]wireGroup
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrTransport.Code, appErrors.ErrTransport.Status, "decode enrollments response")
	}

	groups := make([]EnrollmentGroup, 0, len(wire))
	for registrationID, raw := range wire {
		groups = append(groups, raw.toGroup(registrationID))
	}
	// The wire format is an object keyed by registration id; sort for
	// deterministic processing order.
	sort.Slice(groups, func(i, j int) bool { return groups[i].RegistrationID < groups[j].RegistrationID })
	return groups, nil
}

func (c *Client) getAccessToken(ctx context.Context) (string, error) {
	if c.accessToken != "" {
		return c.accessToken, nil
	}

	payload, err := json.Marshal(map[string]string{
		"grant_type":    "client_credentials",
		"client_id":     c.clientID,
		"client_secret": c.clientSecret,
	})
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrTransport.Code, appErrors.ErrTransport.Status, "encode token request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+oauthTokenPath, bytes.NewReader(payload))
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrTransport.Code, appErrors.ErrTransport.Status, "build token request")
	}
	req.Header.Set("Content-Type", "application/json")

	body, err := c.do(req, "fetch access token")
	if err != nil {
		return "", err
	}

	var token struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(body, &token); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrTransport.Code, appErrors.ErrTransport.Status, "decode token response")
	}
	if token.AccessToken == "" {
		return "", appErrors.Clone(appErrors.ErrTransport, "token response carried no access_token")
	}

	c.accessToken = token.AccessToken
	return c.accessToken, nil
}

func (c *Client) do(req *http.Request, action string) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrTransport.Code, appErrors.ErrTransport.Status, action)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrTransport.Code, appErrors.ErrTransport.Status, action+": read response body")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, appErrors.Clone(appErrors.ErrTransport,
			fmt.Sprintf("%s: status=%d body=%s", action, resp.StatusCode, strings.TrimSpace(string(body))))
	}
	return body, nil
}

// Wire structures mirror the SIGAA payload: an object keyed by registration
// id, program fields on the group, offerings under "disciplinas".
type wireGroup struct {
	Login       string         `json:"login"`
	ProgramName string         `json:"curso"`
	ProgramCode string         `json:"id_curso"`
	Level       string         `json:"curso_nivel"`
	Offerings   []wireOffering `json:"disciplinas"`
}

type wireOffering struct {
	TermLabel string        `json:"periodo"`
	Code      string        `json:"cod_disciplina"`
	Title     string        `json:"disciplina"`
	SubPeriod flexInt       `json:"semestre_oferta_disciplina"`
	Teachers  []wireTeacher `json:"docentes"`
}

type wireTeacher struct {
	Name string `json:"docente"`
	CPF  string `json:"cpf_docente"`
}

func (g wireGroup) toGroup(registrationID string) EnrollmentGroup {
	group := EnrollmentGroup{
		RegistrationID: registrationID,
		Login:          g.Login,
		Offerings:      make([]Offering, 0, len(g.Offerings)),
	}
	for _, o := range g.Offerings {
		offering := Offering{
			TermLabel:    o.TermLabel,
			Code:         o.Code,
			Title:        o.Title,
			ProgramName:  g.ProgramName,
			ProgramCode:  g.ProgramCode,
			ProgramLevel: g.Level,
			SubPeriod:    int(o.SubPeriod),
			Teachers:     make([]TeacherRef, 0, len(o.Teachers)),
		}
		for _, t := range o.Teachers {
			offering.Teachers = append(offering.Teachers, TeacherRef{Name: t.Name, CPF: t.CPF})
		}
		group.Offerings = append(group.Offerings, offering)
	}
	return group
}

// flexInt tolerates the sub-period arriving as either a number or a string.
type flexInt int

func (f *flexInt) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(string(data), `"`)
	if raw == "" || raw == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("invalid sub-period %q: %w", raw, err)
	}
	*f = flexInt(n)
	return nil
}
