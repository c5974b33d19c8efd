package interpret

import (
	"context"
	"errors"
	"reflect"
	"strconv"
	"testing"
	"time"

	"github.com/huythanhnguyen/ddv/internal/domain/intent"
)

type mockExtractor struct {
	extraction *intent.Extraction
	err        error
	delay      time.Duration
	calls      int
}

func (m *mockExtractor) Extract(ctx context.Context, text string) (*intent.Extraction, error) {
	m.calls++
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if m.err != nil {
		return nil, m.err
	}
	return m.extraction, nil
}

func heuristicsOnly() *Service {
	return NewService(nil, time.Second)
}

func TestInterpretEmptyInput(t *testing.T) {
	for _, text := range []string{"", "   ", "\t\n"} {
		it := heuristicsOnly().Interpret(context.Background(), text)
		if it.Brand != nil || it.BudgetMin != nil || it.BudgetMax != nil ||
			it.ModelPhrase != nil || it.PromotionIntent || len(it.Features) != 0 {
			t.Errorf("input %q: expected empty intent, got %+v", text, it)
		}
		if it.EnhancedQueryText != text {
			t.Errorf("input %q: enhanced text should equal input, got %q", text, it.EnhancedQueryText)
		}
	}
}

func TestBrandDetection(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"điện thoại iphone mới nhất", "apple"},
		{"cần mua ipad cho con", "apple"},
		{"galaxy s24 ultra", "samsung"},
		{"điện thoại ss giá rẻ", "samsung"},
		{"redmi note 13", "xiaomi"},
		{"poco x6", "xiaomi"},
		{"oneplus 12", "oppo"},
		{"realme c55", "oppo"},
		{"iqoo z9", "vivo"},
		{"nokia bền", "nokia"},
		{"rog phone gaming", "asus"},
		{"motorola edge", "lenovo"},
		{"điện thoại pin trâu", ""},
	}
	for _, tt := range tests {
		it := heuristicsOnly().Interpret(context.Background(), tt.text)
		got := ""
		if it.Brand != nil {
			got = *it.Brand
		}
		if got != tt.want {
			t.Errorf("%q: expected brand %q, got %q", tt.text, tt.want, got)
		}
	}
}

func TestBrandAliasMustBeWholeToken(t *testing.T) {
	// "mi" and "ip" are aliases but must not fire inside other words.
	for _, text := range []string{"máy miễn phí vận chuyển", "vip member deal"} {
		it := heuristicsOnly().Interpret(context.Background(), text)
		if it.Brand != nil {
			t.Errorf("%q: expected no brand, got %q", text, *it.Brand)
		}
	}
}

func TestBudgetExtraction(t *testing.T) {
	p := func(v int64) *int64 { return &v }
	tests := []struct {
		text     string
		wantMin  *int64
		wantMax  *int64
	}{
		{"điện thoại dưới 5 triệu", nil, p(5_000_000)},
		{"under 10 trieu", nil, p(10_000_000)},
		{"10 triệu trở xuống", nil, p(10_000_000)},
		{"từ 10 đến 20 triệu", p(10_000_000), p(20_000_000)},
		{"10-15 triệu", p(10_000_000), p(15_000_000)},
		{"8 đến 12 tr", p(8_000_000), p(12_000_000)},
		{"trên 25 triệu", p(25_000_000), nil},
		{"dưới 8.5 triệu", nil, p(8_500_000)},
		{"điện thoại tốt", nil, nil},
	}
	for _, tt := range tests {
		it := heuristicsOnly().Interpret(context.Background(), tt.text)
		if !int64PtrEq(it.BudgetMin, tt.wantMin) || !int64PtrEq(it.BudgetMax, tt.wantMax) {
			t.Errorf("%q: expected [%s, %s], got [%s, %s]",
				tt.text, fmtPtr(tt.wantMin), fmtPtr(tt.wantMax), fmtPtr(it.BudgetMin), fmtPtr(it.BudgetMax))
		}
	}
}

func TestBudgetRangeOrderInvariant(t *testing.T) {
	it := heuristicsOnly().Interpret(context.Background(), "20-10 triệu")
	if it.BudgetMin == nil || it.BudgetMax == nil {
		t.Fatal("expected both bounds set")
	}
	if *it.BudgetMin > *it.BudgetMax {
		t.Errorf("expected min <= max, got [%d, %d]", *it.BudgetMin, *it.BudgetMax)
	}
}

func TestModelPhraseExtraction(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"iphone 16 pro max giá tốt", "iphone 16 pro max"},
		{"iphone 16 pro giá tốt", "iphone 16 pro"},
		{"mua iphone 15", "iphone 15"},
		{"galaxy 24 ultra", "galaxy 24 ultra"},
		{"iphone mới nhất", ""},
		{"điện thoại giá rẻ", ""},
	}
	for _, tt := range tests {
		it := heuristicsOnly().Interpret(context.Background(), tt.text)
		got := ""
		if it.ModelPhrase != nil {
			got = *it.ModelPhrase
		}
		if got != tt.want {
			t.Errorf("%q: expected model phrase %q, got %q", tt.text, tt.want, got)
		}
	}
}

func TestPromotionIntentDetection(t *testing.T) {
	positive := []string{
		"điện thoại khuyến mãi",
		"đang giảm giá không",
		"có ưu đãi gì",
		"sale iphone",
		"deal tốt hôm nay",
		"mua trả góp 0%",
	}
	for _, text := range positive {
		if it := heuristicsOnly().Interpret(context.Background(), text); !it.PromotionIntent {
			t.Errorf("%q: expected promotion intent", text)
		}
	}
	if it := heuristicsOnly().Interpret(context.Background(), "iphone 16 pro"); it.PromotionIntent {
		t.Error("expected no promotion intent for plain model query")
	}
}

func TestFeatureExtraction(t *testing.T) {
	it := heuristicsOnly().Interpret(context.Background(), "điện thoại chụp ảnh đẹp pin trâu")
	want := []string{"battery", "camera"}
	if !reflect.DeepEqual(it.Features, want) {
		t.Errorf("expected features %v, got %v", want, it.Features)
	}
}

func TestExtractorFillsGapsOnly(t *testing.T) {
	budget := int64(12_000_000)
	ext := &mockExtractor{extraction: &intent.Extraction{
		SearchQuery: "samsung galaxy flagship",
		Brands:      []string{"samsung"},
		BudgetMax:   &budget,
		Features:    []string{"camera"},
	}}
	svc := NewService(ext, time.Second)

	// Heuristic brand wins; budget and features come from the extractor.
	it := svc.Interpret(context.Background(), "iphone tốt")
	if it.Brand == nil || *it.Brand != "apple" {
		t.Fatalf("expected heuristic brand apple to win, got %v", it.Brand)
	}
	if it.BudgetMax == nil || *it.BudgetMax != budget {
		t.Errorf("expected extractor budget to fill the gap, got %v", it.BudgetMax)
	}
	if !reflect.DeepEqual(it.Features, []string{"camera"}) {
		t.Errorf("expected extractor features, got %v", it.Features)
	}
	if it.EnhancedQueryText != "samsung galaxy flagship" {
		t.Errorf("expected rewritten query, got %q", it.EnhancedQueryText)
	}
}

func TestExtractorErrorDegradesSilently(t *testing.T) {
	ext := &mockExtractor{err: errors.New("upstream down")}
	svc := NewService(ext, time.Second)

	it := svc.Interpret(context.Background(), "iphone dưới 20 triệu")
	if it.Brand == nil || *it.Brand != "apple" {
		t.Error("expected heuristic brand despite extractor failure")
	}
	if it.BudgetMax == nil || *it.BudgetMax != 20_000_000 {
		t.Error("expected heuristic budget despite extractor failure")
	}
	if it.EnhancedQueryText != "iphone dưới 20 triệu" {
		t.Errorf("expected raw text as enhanced query, got %q", it.EnhancedQueryText)
	}
}

func TestExtractorTimeoutDegradesSilently(t *testing.T) {
	ext := &mockExtractor{delay: 200 * time.Millisecond, extraction: &intent.Extraction{SearchQuery: "late"}}
	svc := NewService(ext, 10*time.Millisecond)

	it := svc.Interpret(context.Background(), "iphone 15")
	if it.EnhancedQueryText != "iphone 15" {
		t.Errorf("expected raw text after timeout, got %q", it.EnhancedQueryText)
	}
}

func TestExtractorSkippedForBlankInput(t *testing.T) {
	ext := &mockExtractor{extraction: &intent.Extraction{SearchQuery: "noise"}}
	svc := NewService(ext, time.Second)

	svc.Interpret(context.Background(), "   ")
	if ext.calls != 0 {
		t.Errorf("expected no extractor call for blank input, got %d", ext.calls)
	}
}

func int64PtrEq(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func fmtPtr(p *int64) string {
	if p == nil {
		return "nil"
	}
	return strconv.FormatInt(*p, 10)
}
