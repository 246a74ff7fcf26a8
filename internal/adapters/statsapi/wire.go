package statsapi

import (
	"fmt"

	"github.com/kitaoji/hensachi/internal/domain/model"
)

// Wire shapes. All numeric fields arrive as decimal strings and must be
// parsed before arithmetic.

type rankScoreResponse struct {
	RankCode      string         `json:"rank_code"`
	Hensachi      string         `json:"hensachi"`
	TopPercent    *string        `json:"top_percent"`
	BottomPercent *string        `json:"bottom_percent"`
	Meta          map[string]any `json:"meta"`
}

func (r rankScoreResponse) toResult() (*model.ScoreResult, error) {
	score, err := model.ParseDecimal(r.Hensachi)
	if err != nil {
		return nil, fmt.Errorf("%w: hensachi %q: %v", ErrDecode, r.Hensachi, err)
	}
	out := &model.ScoreResult{Score: score, Meta: r.Meta}
	if out.TopPercent, err = parseOptional("top_percent", r.TopPercent); err != nil {
		return nil, err
	}
	if out.BottomPercent, err = parseOptional("bottom_percent", r.BottomPercent); err != nil {
		return nil, err
	}
	return out, nil
}

type datasetResponse struct {
	Slug        string `json:"slug"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type metricInfoResponse struct {
	Key  string `json:"key"`
	Name string `json:"name"`
	Unit string `json:"unit"`
}

type metricRowResponse struct {
	Item struct {
		Key  string         `json:"key"`
		Name string         `json:"name"`
		Meta map[string]any `json:"meta"`
	} `json:"item"`
	Value    string `json:"value"`
	Hensachi string `json:"hensachi"`
}

type metricScoresResponse struct {
	Dataset string              `json:"dataset"`
	Metric  string              `json:"metric"`
	Unit    string              `json:"unit"`
	Count   int                 `json:"count"`
	Mean    string              `json:"mean"`
	Std     string              `json:"std"`
	Results []metricRowResponse `json:"results"`
}

func (r metricScoresResponse) toTable() (*model.MetricTable, error) {
	mean, err := model.ParseDecimal(r.Mean)
	if err != nil {
		return nil, fmt.Errorf("%w: mean %q: %v", ErrDecode, r.Mean, err)
	}
	std, err := model.ParseDecimal(r.Std)
	if err != nil {
		return nil, fmt.Errorf("%w: std %q: %v", ErrDecode, r.Std, err)
	}

	table := &model.MetricTable{
		Dataset:     r.Dataset,
		Metric:      r.Metric,
		Unit:        r.Unit,
		SampleCount: r.Count,
		Mean:        mean,
		StdDev:      std,
		Rows:        make([]model.MetricRow, len(r.Results)),
	}
	for i, row := range r.Results {
		value, err := model.ParseDecimal(row.Value)
		if err != nil {
			return nil, fmt.Errorf("%w: row %d value %q: %v", ErrDecode, i, row.Value, err)
		}
		score, err := model.ParseDecimal(row.Hensachi)
		if err != nil {
			return nil, fmt.Errorf("%w: row %d hensachi %q: %v", ErrDecode, i, row.Hensachi, err)
		}
		table.Rows[i] = model.MetricRow{
			ItemKey:  row.Item.Key,
			ItemName: row.Item.Name,
			Meta:     row.Item.Meta,
			Value:    value,
			Score:    score,
		}
	}
	return table, nil
}

type submitRequest struct {
	UserHash string  `json:"user_hash"`
	Value    float64 `json:"value"`
}

type ackResponse struct {
	Detail string `json:"detail"`
}

type userScoreResponse struct {
	UserMetric string  `json:"user_metric"`
	X          string  `json:"x"`
	Hensachi   string  `json:"hensachi"`
	Mean       string  `json:"mean"`
	Std        string  `json:"std"`
	Count      int     `json:"count"`
	Unit       string  `json:"unit"`
	Diff       *string `json:"diff"`
	Rank       *int    `json:"rank"`
	TopPercent *string `json:"top_percent"`
}

func (r userScoreResponse) toResult() (*model.ScoreResult, error) {
	value, err := model.ParseDecimal(r.X)
	if err != nil {
		return nil, fmt.Errorf("%w: x %q: %v", ErrDecode, r.X, err)
	}
	score, err := model.ParseDecimal(r.Hensachi)
	if err != nil {
		return nil, fmt.Errorf("%w: hensachi %q: %v", ErrDecode, r.Hensachi, err)
	}
	mean, err := model.ParseDecimal(r.Mean)
	if err != nil {
		return nil, fmt.Errorf("%w: mean %q: %v", ErrDecode, r.Mean, err)
	}
	std, err := model.ParseDecimal(r.Std)
	if err != nil {
		return nil, fmt.Errorf("%w: std %q: %v", ErrDecode, r.Std, err)
	}

	out := &model.ScoreResult{
		Value:        value,
		Score:        score,
		Mean:         mean,
		StdDev:       std,
		SampleCount:  r.Count,
		Unit:         r.Unit,
		RankPosition: r.Rank,
	}
	if out.Diff, err = parseOptional("diff", r.Diff); err != nil {
		return nil, err
	}
	if out.TopPercent, err = parseOptional("top_percent", r.TopPercent); err != nil {
		return nil, err
	}
	return out, nil
}

type historyItemResponse struct {
	ID        int64  `json:"id"`
	Value     string `json:"value"`
	CreatedAt string `json:"created_at"`
}

type historyResponse struct {
	UserMetric string                `json:"user_metric"`
	UserHash   string                `json:"user_hash"`
	Limit      int                   `json:"limit"`
	Items      []historyItemResponse `json:"items"`
}

func parseOptional(field string, s *string) (*float64, error) {
	if s == nil {
		return nil, nil
	}
	v, err := model.ParseDecimal(*s)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %q: %v", ErrDecode, field, *s, err)
	}
	return &v, nil
}
