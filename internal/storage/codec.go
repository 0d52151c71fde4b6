package storage

import (
	"encoding/json"
	"errors"

	"neuroforge/internal/model"
)

const (
	CurrentSchemaVersion = 1
	CurrentCodecVersion  = 1
)

var ErrVersionMismatch = errors.New("record version mismatch")

// Stamp fills in the current schema and codec versions. Callers stamp a
// record before encoding it for persistence.
func Stamp() model.VersionedRecord {
	return model.VersionedRecord{
		SchemaVersion: CurrentSchemaVersion,
		CodecVersion:  CurrentCodecVersion,
	}
}

func EncodeGraph(g model.GraphRecord) ([]byte, error) {
	return json.Marshal(g)
}

func DecodeGraph(data []byte) (model.GraphRecord, error) {
	var record model.GraphRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return model.GraphRecord{}, err
	}
	if err := checkVersion(record.VersionedRecord); err != nil {
		return model.GraphRecord{}, err
	}
	return record, nil
}

func EncodeTrainingHistory(history []model.TrainingResult) ([]byte, error) {
	return json.Marshal(history)
}

func DecodeTrainingHistory(data []byte) ([]model.TrainingResult, error) {
	var history []model.TrainingResult
	if err := json.Unmarshal(data, &history); err != nil {
		return nil, err
	}
	for _, result := range history {
		if err := checkVersion(result.VersionedRecord); err != nil {
			return nil, err
		}
	}
	return history, nil
}

func EncodeEvolutionLog(entries []model.EvolutionLogEntry) ([]byte, error) {
	return json.Marshal(entries)
}

func DecodeEvolutionLog(data []byte) ([]model.EvolutionLogEntry, error) {
	var entries []model.EvolutionLogEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}
	for _, entry := range entries {
		if err := checkVersion(entry.VersionedRecord); err != nil {
			return nil, err
		}
	}
	return entries, nil
}

func EncodeLossHistory(losses []float64) ([]byte, error) {
	return json.Marshal(losses)
}

func DecodeLossHistory(data []byte) ([]float64, error) {
	var losses []float64
	if err := json.Unmarshal(data, &losses); err != nil {
		return nil, err
	}
	return losses, nil
}

func checkVersion(v model.VersionedRecord) error {
	if v.SchemaVersion != CurrentSchemaVersion || v.CodecVersion != CurrentCodecVersion {
		return ErrVersionMismatch
	}
	return nil
}
