package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"scan-station/internal/core/config"
	"scan-station/internal/core/httpclient"
	"scan-station/internal/core/logger"
	"scan-station/internal/features/booking/domain"
	"scan-station/internal/features/booking/ports"

	"go.uber.org/zap"
)

// placeSearchID tags place lookups on the carrier side.
const placeSearchID = "ScanStation"

// waybillFields, labelFields and waybillPDFFields are the response keys the
// carrier has been observed to use across API revisions.
var (
	waybillFields    = []string{"waybill", "waybillno", "waybillNo", "trackingNo"}
	labelFields      = []string{"labelsBase64", "labelBase64", "labels_pdf"}
	waybillPDFFields = []string{"waybillBase64", "waybillPdfBase64", "waybill_pdf"}
)

// ParcelPerfectAdapter implements the CarrierGateway interface against the
// ParcelPerfect v28 JSON API.
type ParcelPerfectAdapter struct {
	client *http.Client
	config config.CarrierConfig
}

// NewParcelPerfectAdapter creates a new instance of ParcelPerfectAdapter.
func NewParcelPerfectAdapter(cfg config.CarrierConfig) *ParcelPerfectAdapter {
	return &ParcelPerfectAdapter{
		client: httpclient.NewClient(30 * time.Second),
		config: cfg,
	}
}

// call posts one method envelope as a form body and returns the raw JSON
// response. The API multiplexes every operation over a single endpoint.
func (a *ParcelPerfectAdapter) call(ctx context.Context, method, class string, params interface{}) (map[string]json.RawMessage, error) {
	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal params: %w", err)
	}

	form := url.Values{}
	form.Set("method", method)
	form.Set("class", class)
	form.Set("params", string(paramsJSON))
	if a.config.Token != "" {
		form.Set("token_id", a.config.Token)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.config.BaseURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("carrier API returned status: %d", resp.StatusCode)
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("failed to decode carrier response: %w", err)
	}
	return envelope, nil
}

// flatten returns the first entry of a "results" array when present,
// otherwise the envelope itself. The API wraps some responses and not others.
func flatten(envelope map[string]json.RawMessage) map[string]json.RawMessage {
	raw, ok := envelope["results"]
	if !ok {
		return envelope
	}
	var results []map[string]json.RawMessage
	if err := json.Unmarshal(raw, &results); err != nil || len(results) == 0 {
		return envelope
	}
	return results[0]
}

// stringField extracts the first non-empty string among candidate keys.
// Numeric values are rendered as strings.
func stringField(obj map[string]json.RawMessage, keys ...string) string {
	for _, key := range keys {
		raw, ok := obj[key]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil && s != "" {
			return s
		}
		var n json.Number
		if err := json.Unmarshal(raw, &n); err == nil && n.String() != "" {
			return n.String()
		}
	}
	return ""
}

// SearchPlaces queries the carrier place directory.
func (a *ParcelPerfectAdapter) SearchPlaces(ctx context.Context, query string) ([]domain.Place, error) {
	params, err := json.Marshal(map[string]string{
		"id":     placeSearchID,
		"accnum": a.config.Account,
		"ppcust": "",
	})
	if err != nil {
		return nil, err
	}

	qs := url.Values{}
	qs.Set("Class", "Waybill")
	qs.Set("method", "getPlace")
	qs.Set("token_id", a.config.Token)
	qs.Set("params", string(params))
	qs.Set("query", query)

	rawURL := strings.TrimRight(a.config.BaseURL, "/") + "/?" + qs.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("carrier API returned status: %d", resp.StatusCode)
	}

	var payload struct {
		ErrorCode json.Number `json:"errorcode"`
		Results   []struct {
			Place json.Number `json:"place"`
			Name  string      `json:"name"`
			Town  string      `json:"town"`
			Ring  json.Number `json:"ring"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if code, err := payload.ErrorCode.Int64(); err == nil && code != 0 {
		return nil, fmt.Errorf("carrier place search error code: %d", code)
	}

	places := make([]domain.Place, 0, len(payload.Results))
	for _, r := range payload.Results {
		code, err := r.Place.Int64()
		if err != nil || code == 0 {
			continue
		}
		ring, _ := r.Ring.Int64()
		places = append(places, domain.Place{
			Code: int(code),
			Name: r.Name,
			Town: r.Town,
			Ring: int(ring),
		})
	}
	return places, nil
}

// RequestQuote prices a collection and returns the quote reference with its
// service options.
func (a *ParcelPerfectAdapter) RequestQuote(ctx context.Context, req ports.QuoteRequest) (*domain.Quote, error) {
	details := quoteDetails(req)

	contents := make([]map[string]interface{}, len(req.Parcels))
	for i, p := range req.Parcels {
		contents[i] = map[string]interface{}{
			"item":    p.Item,
			"pieces":  p.Pieces,
			"dim1":    p.Dim1,
			"dim2":    p.Dim2,
			"dim3":    p.Dim3,
			"actmass": p.MassKg,
		}
	}

	envelope, err := a.call(ctx, "requestQuote", "quote", map[string]interface{}{
		"details":  details,
		"contents": contents,
	})
	if err != nil {
		return nil, err
	}

	flat := flatten(envelope)

	quote := &domain.Quote{QuoteNo: stringField(flat, "quoteno")}
	if raw, ok := flat["rates"]; ok {
		var rates []struct {
			Service  string      `json:"service"`
			Name     string      `json:"name"`
			Total    json.Number `json:"total"`
			Subtotal json.Number `json:"subtotal"`
			Charge   json.Number `json:"charge"`
		}
		if err := json.Unmarshal(raw, &rates); err == nil {
			for _, r := range rates {
				total, err := r.Total.Float64()
				if err != nil {
					if total, err = r.Subtotal.Float64(); err != nil {
						total, _ = r.Charge.Float64()
					}
				}
				quote.Rates = append(quote.Rates, domain.Rate{
					Service: r.Service,
					Name:    r.Name,
					Total:   total,
				})
			}
		}
	}
	return quote, nil
}

// SetService pins the chosen service code on an open quote.
func (a *ParcelPerfectAdapter) SetService(ctx context.Context, quoteNo, service, reference string) error {
	_, err := a.call(ctx, "updateService", "quote", map[string]string{
		"quoteno":   quoteNo,
		"service":   service,
		"reference": reference,
	})
	return err
}

// CommitCollection converts a quote into a booked collection. A response with
// no recognizable waybill yields a synthesized placeholder so the pipeline
// can proceed with the operator warned.
func (a *ParcelPerfectAdapter) CommitCollection(ctx context.Context, quoteNo string, opts ports.CollectionOptions) (*domain.Collection, error) {
	envelope, err := a.call(ctx, "quoteToCollection", "collection", map[string]interface{}{
		"quoteno":      quoteNo,
		"starttime":    opts.StartTime,
		"endtime":      opts.EndTime,
		"printLabels":  boolFlag(opts.PrintLabels),
		"printWaybill": boolFlag(opts.PrintWaybill),
	})
	if err != nil {
		return nil, err
	}

	flat := flatten(envelope)

	coll := &domain.Collection{
		Waybill:    stringField(flat, waybillFields...),
		LabelPDF:   stringField(flat, labelFields...),
		WaybillPDF: stringField(flat, waybillPDFFields...),
	}
	if coll.Waybill == "" {
		coll.Waybill = "WB-" + quoteNo
		coll.WaybillSynthesized = true
		logger.Get().Warn("Carrier returned no waybill number, synthesizing placeholder",
			zap.String("quoteno", quoteNo),
			zap.String("waybill", coll.Waybill),
		)
	}
	return coll, nil
}

// quoteDetails builds the flat wire details block from origin and destination.
func quoteDetails(req ports.QuoteRequest) map[string]interface{} {
	o := req.Origin
	d := req.Destination

	phone := d.Phone
	if phone == "" {
		phone = "0000000000"
	}

	return map[string]interface{}{
		"origpers":       o.Name,
		"origperadd1":    o.Address1,
		"origperadd2":    o.Address2,
		"origperadd3":    o.Address3,
		"origperadd4":    "ZA",
		"origperpcode":   o.Postal,
		"origtown":       o.Town,
		"origplace":      o.PlaceCode,
		"origpercontact": o.Contact,
		"origperphone":   o.Phone,
		"origpercell":    o.Phone,
		"notifyorigpers": 1,
		"origperemail":   o.Email,
		"notes":          o.Notes,

		"destpers":       d.Name,
		"destperadd1":    d.Address1,
		"destperadd2":    d.Address2,
		"destperadd3":    d.City,
		"destperadd4":    d.Province,
		"destperpcode":   d.Postal,
		"desttown":       d.City,
		"destplace":      req.PlaceCode,
		"destpercontact": d.Name,
		"destperphone":   d.Phone,
		"destpercell":    phone,
		"notifydestpers": 1,
		"destperemail":   d.Email,
		"reference":      req.Reference,
	}
}

// boolFlag renders a bool as the 0/1 ints the API expects.
func boolFlag(b bool) int {
	if b {
		return 1
	}
	return 0
}
