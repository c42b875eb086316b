package types

import (
	"encoding/json"
	"time"
)

// snapshotRecord is the wire form of a Snapshot.
type snapshotRecord struct {
	Time int64   `json:"time"`
	CO2  float64 `json:"co2"`
}

// MarshalJSON encodes the snapshot as {"time": <unix seconds>, "co2": <value>}.
func (s Snapshot) MarshalJSON() ([]byte, error) {
	return json.Marshal(snapshotRecord{Time: s.Time.Unix(), CO2: s.CO2})
}

// UnmarshalJSON decodes the {"time", "co2"} form.
func (s *Snapshot) UnmarshalJSON(data []byte) error {
	var rec snapshotRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return err
	}
	s.Time = time.Unix(rec.Time, 0).UTC()
	s.CO2 = rec.CO2

	return nil
}
