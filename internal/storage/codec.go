package storage

import (
	"encoding/json"
	"errors"
	"fmt"

	"popsim/internal/model"
)

const (
	CurrentSchemaVersion = 1
	CurrentCodecVersion  = 1
)

var ErrVersionMismatch = errors.New("record version mismatch")

func EncodeSnapshot(snap model.PopulationSnapshot) ([]byte, error) {
	return json.Marshal(snap)
}

func DecodeSnapshot(data []byte) (model.PopulationSnapshot, error) {
	var snap model.PopulationSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return model.PopulationSnapshot{}, err
	}
	if err := checkVersion(snap.VersionedRecord); err != nil {
		return model.PopulationSnapshot{}, err
	}
	return snap, nil
}

func EncodeFitnessSeries(series []model.FitnessSeries) ([]byte, error) {
	return json.Marshal(series)
}

func DecodeFitnessSeries(data []byte) ([]model.FitnessSeries, error) {
	var series []model.FitnessSeries
	if err := json.Unmarshal(data, &series); err != nil {
		return nil, err
	}
	for _, item := range series {
		if err := checkVersion(item.VersionedRecord); err != nil {
			return nil, err
		}
	}
	return series, nil
}

func checkVersion(record model.VersionedRecord) error {
	if record.SchemaVersion != CurrentSchemaVersion {
		return fmt.Errorf("%w: schema version %d, want %d", ErrVersionMismatch, record.SchemaVersion, CurrentSchemaVersion)
	}
	if record.CodecVersion != CurrentCodecVersion {
		return fmt.Errorf("%w: codec version %d, want %d", ErrVersionMismatch, record.CodecVersion, CurrentCodecVersion)
	}
	return nil
}

// Stamp sets the current schema and codec versions on a record.
func Stamp() model.VersionedRecord {
	return model.VersionedRecord{
		SchemaVersion: CurrentSchemaVersion,
		CodecVersion:  CurrentCodecVersion,
	}
}
