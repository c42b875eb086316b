package opensky

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/skycarbon/skycarbon/types"
)

// Positions of fields in one /states/all row.
const (
	colICAO24 = iota
	colCallsign
	colOriginCountry
	colTimePosition
	colLastContact
	colLongitude
	colLatitude
	colBaroAltitude
	colOnGround
	colVelocity
	colTrueTrack
	colVerticalRate
	colSensors
	colGeoAltitude
	colSquawk
	colSPI
	colPositionSource
	colCategory
)

// minColumns is the row length without the extended category column.
const minColumns = colPositionSource + 1

type statesBody struct {
	Time   int64               `json:"time"`
	States [][]json.RawMessage `json:"states"`
}

// decodeStates parses a /states/all body. A null "states" yields nil States.
func decodeStates(data []byte) (*types.StatesResponse, error) {
	var body statesBody
	if err := json.Unmarshal(data, &body); err != nil {
		return nil, fmt.Errorf("decode states body: %w", err)
	}

	resp := &types.StatesResponse{Time: time.Unix(body.Time, 0).UTC()}
	if body.States == nil {
		return resp, nil
	}

	resp.States = make([]types.StateVector, 0, len(body.States))
	for i, row := range body.States {
		sv, err := decodeRow(row)
		if err != nil {
			return nil, fmt.Errorf("decode state %d: %w", i, err)
		}
		resp.States = append(resp.States, sv)
	}

	return resp, nil
}

func decodeRow(row []json.RawMessage) (types.StateVector, error) {
	var sv types.StateVector
	if len(row) < minColumns {
		return sv, fmt.Errorf("row has %d columns, want at least %d", len(row), minColumns)
	}

	var callsign *string
	var squawk *string
	var lastContact *int64
	var onGround *bool
	var posSource *int

	fields := []struct {
		col int
		dst any
	}{
		{colICAO24, &sv.ICAO24},
		{colCallsign, &callsign},
		{colOriginCountry, &sv.OriginCountry},
		{colTimePosition, &sv.TimePosition},
		{colLastContact, &lastContact},
		{colLongitude, &sv.Longitude},
		{colLatitude, &sv.Latitude},
		{colBaroAltitude, &sv.BaroAltitude},
		{colOnGround, &onGround},
		{colVelocity, &sv.Velocity},
		{colTrueTrack, &sv.TrueTrack},
		{colVerticalRate, &sv.VerticalRate},
		{colGeoAltitude, &sv.GeoAltitude},
		{colSquawk, &squawk},
		{colPositionSource, &posSource},
	}
	for _, f := range fields {
		if err := json.Unmarshal(row[f.col], f.dst); err != nil {
			return sv, fmt.Errorf("column %d: %w", f.col, err)
		}
	}

	if callsign != nil {
		sv.Callsign = strings.TrimSpace(*callsign)
	}
	if squawk != nil {
		sv.Squawk = *squawk
	}
	if lastContact != nil {
		sv.LastContact = *lastContact
	}
	if onGround != nil {
		sv.OnGround = *onGround
	}
	if posSource != nil {
		sv.PositionSource = *posSource
	}

	if len(row) > colCategory {
		var category *int
		if err := json.Unmarshal(row[colCategory], &category); err != nil {
			return sv, fmt.Errorf("column %d: %w", colCategory, err)
		}
		if category != nil {
			sv.Category = *category
		}
	}

	return sv, nil
}
