package model

import (
	"fmt"
)

// ErrInvalidRange indicates a card range whose end bound precedes its start.
//
// Construction is the only validation point for ranges; once a CardRange
// exists, the rest of the library trusts it.
type ErrInvalidRange struct {
	Start int64
	End   int64
}

func (e *ErrInvalidRange) Error() string {
	return fmt.Sprintf("invalid card range: endRange (%d) must be greater than or equal to startRange (%d)", e.End, e.Start)
}

// ErrNilCardRangeData indicates a PRes message without a cardRangeData array.
type ErrNilCardRangeData struct{}

func (e *ErrNilCardRangeData) Error() string {
	return "card range data cannot be nil"
}

// CardRange is one contiguous BIN range plus its routing metadata.
//
// StartRange and EndRange are inclusive PAN bounds, serialized as JSON
// strings per the PRes wire format. The index keys only on the bounds;
// the remaining fields are opaque payload carried for the caller.
//
// JSON shape:
//
//	{
//	  "startRange": "4000020000000000",
//	  "endRange": "4000020009999999",
//	  "actionInd": "A",
//	  "acsEndProtocolVersion": "2.1.0",
//	  "threeDSMethodURL": "https://example.com/3ds",
//	  "acsStartProtocolVersion": "2.1.0",
//	  "acsInfoInd": ["01", "02"]
//	}
type CardRange struct {
	StartRange              int64    `json:"startRange,string"`
	EndRange                int64    `json:"endRange,string"`
	ActionInd               string   `json:"actionInd,omitempty"`
	ACSEndProtocolVersion   string   `json:"acsEndProtocolVersion,omitempty"`
	ThreeDSMethodURL        string   `json:"threeDSMethodURL,omitempty"`
	ACSStartProtocolVersion string   `json:"acsStartProtocolVersion,omitempty"`
	ACSInfoInd              []string `json:"acsInfoInd,omitempty"`
}

// NewCardRange constructs a validated CardRange.
//
// It fails with *ErrInvalidRange when end < start. Negative bounds are
// accepted here; the facade rejects negative PANs at lookup time instead.
func NewCardRange(start, end int64, methodURL string) (CardRange, error) {
	r := CardRange{
		StartRange:       start,
		EndRange:         end,
		ThreeDSMethodURL: methodURL,
	}
	if err := r.Validate(); err != nil {
		return CardRange{}, err
	}
	return r, nil
}

// Validate checks the range-order invariant.
func (r CardRange) Validate() error {
	if r.EndRange < r.StartRange {
		return &ErrInvalidRange{Start: r.StartRange, End: r.EndRange}
	}
	return nil
}

// Contains reports whether pan falls inside the inclusive range.
func (r CardRange) Contains(pan int64) bool {
	return r.StartRange <= pan && pan <= r.EndRange
}

// Width returns the inclusive span covered by the range. A smaller width
// means a more specific range; lookups prefer strictly smaller widths.
func (r CardRange) Width() int64 {
	return r.EndRange - r.StartRange
}

// String returns a compact representation for logs.
func (r CardRange) String() string {
	return fmt.Sprintf("CardRange[%d-%d url=%s]", r.StartRange, r.EndRange, r.ThreeDSMethodURL)
}

// PResMessage is the PRes envelope carrying a batch of card ranges.
//
// The envelope fields (serialNum, messageType, dsTransID) are passed
// through untouched; only cardRangeData is inspected.
type PResMessage struct {
	SerialNum     string      `json:"serialNum,omitempty"`
	MessageType   string      `json:"messageType,omitempty"`
	DSTransID     string      `json:"dsTransID,omitempty"`
	CardRangeData []CardRange `json:"cardRangeData"`
}

// Validate checks the envelope and every contained range.
//
// A batch is all-or-nothing: if any contained range is invalid the whole
// message is rejected and none of it reaches the index.
func (m *PResMessage) Validate() error {
	if m.CardRangeData == nil {
		return &ErrNilCardRangeData{}
	}
	for i := range m.CardRangeData {
		if err := m.CardRangeData[i].Validate(); err != nil {
			return fmt.Errorf("cardRangeData[%d]: %w", i, err)
		}
	}
	return nil
}

// String returns a compact representation for logs.
func (m *PResMessage) String() string {
	return fmt.Sprintf("PResMessage{cardRangeDataSize=%d}", len(m.CardRangeData))
}
