// Package barcode encodes and decodes the composite roll identity printed
// on physical labels: lot id, machine name and roll number, plus the FG roll
// number once one has been minted. The decoder fails closed; a partial scan
// never yields a usable identity.
package barcode

import (
	"fmt"
	"strings"

	"knitmes/internal/domainerr"
)

// Separator joins the identity parts on the printed label.
const Separator = "#"

// RollRef is the decoded identity of one physical roll.
type RollRef struct {
	LotID       string
	MachineName string
	RollNo      string
	FGRollNo    string // empty until an FG roll number exists
}

// Encode produces the 3-part assignment-level code.
func Encode(lotID, machineName string, rollNo int) string {
	return fmt.Sprintf("%s%s%s%s%d", lotID, Separator, machineName, Separator, rollNo)
}

// EncodeFG produces the 4-part code used once an FG roll number exists.
func EncodeFG(lotID, machineName string, rollNo int, fgRollNo string) string {
	return Encode(lotID, machineName, rollNo) + Separator + fgRollNo
}

// Decode splits a scanned code into its identity parts. Fewer than three
// parts, or an empty part, is a malformed scan; missing fields are never
// inferred from context.
func Decode(raw string) (RollRef, error) {
	parts := strings.Split(strings.TrimSpace(raw), Separator)
	if len(parts) < 3 {
		return RollRef{}, domainerr.New(domainerr.KindMalformedBarcode,
			"scanned code %q has %d parts, need at least 3", raw, len(parts))
	}
	for i := 0; i < 3; i++ {
		if parts[i] == "" {
			return RollRef{}, domainerr.New(domainerr.KindMalformedBarcode,
				"scanned code %q has an empty identity part", raw)
		}
	}
	ref := RollRef{LotID: parts[0], MachineName: parts[1], RollNo: parts[2]}
	if len(parts) >= 4 {
		ref.FGRollNo = parts[3]
	}
	return ref, nil
}
