package catalog

import (
	"math"
	"strconv"
	"time"
)

// NotAvailable is the sentinel for an unknown categorical attribute
const NotAvailable = "N/A"

// DateLayout is the en-US 24-hour layout of the document date
const DateLayout = "01/02/2006, 15:04"

// Record is the normalized catalog entry for one external identifier
type Record struct {
	ID                            string   `json:"id"`
	Title                         string   `json:"title"`
	DisplayTitle                  string   `json:"displayTitle"`
	Price                         *float64 `json:"price"`
	Symbol                        string   `json:"symbol"`
	CapacityGB                    int      `json:"capacityGB"`
	SpeedMHz                      *int     `json:"speedMHz"`
	Latency                       string   `json:"latency"`
	MemoryTechnology              string   `json:"memoryTechnology"`
	FormFactor                    string   `json:"formFactor"`
	Color                         string   `json:"color"`
	Voltage                       *float64 `json:"voltage"`
	CompatibleDevices             string   `json:"compatibleDevices"`
	PricePerUnitCapacity          float64  `json:"pricePerUnitCapacity"`
	PricePerUnitCapacityFormatted string   `json:"pricePerUnitCapacityFormatted"`
	XMPReady                      bool     `json:"xmpReady"`
	EXPOReady                     bool     `json:"expoReady"`
	RGB                           bool     `json:"rgb"`
	ECC                           bool     `json:"ecc"`
	FeatureBullets                []string `json:"featureBullets,omitempty"`
	Rating                        *float64 `json:"rating"`
	RatingsTotal                  *int     `json:"ratingsTotal"`
	Brand                         string   `json:"brand"`
	IsNew                         *bool    `json:"isNew"`
	URL                           string   `json:"url"`
}

// Document is the pipeline's output: the ordered records tagged with their generation time
type Document struct {
	Date        string    `json:"date"`
	RunID       string    `json:"runId"`
	Data        []*Record `json:"data"`
	GeneratedAt time.Time `json:"-"`
}

// NewDocument tags records with the generation time t
func NewDocument(runID string, t time.Time, records []*Record) *Document {
	if records == nil {
		records = []*Record{}
	}
	return &Document{
		Date:        t.Format(DateLayout),
		RunID:       runID,
		Data:        records,
		GeneratedAt: t,
	}
}

// RoundCents rounds x to two decimals, halves away from zero
func RoundCents(x float64) float64 {
	return math.Round(x*100) / 100
}

// UpdatePricePerUnit recomputes the price per GB from Price and CapacityGB
func (r *Record) UpdatePricePerUnit() {
	r.PricePerUnitCapacity = 0
	if r.Price != nil && r.CapacityGB > 0 {
		r.PricePerUnitCapacity = RoundCents(*r.Price / float64(r.CapacityGB))
	}
	r.PricePerUnitCapacityFormatted = strconv.FormatFloat(r.PricePerUnitCapacity, 'f', 2, 64)
}
