package iocache

import (
	"time"

	"github.com/huangsam/codeaudit/internal/contract"
	"github.com/huangsam/codeaudit/schema"
	"github.com/stretchr/testify/mock"
)

// MockHistoryManager is a mock implementation of HistoryManager for testing.
type MockHistoryManager struct {
	mock.Mock
}

var _ contract.HistoryManager = &MockHistoryManager{} // Compile-time check

// GetHistoryStore implements the HistoryManager interface.
func (m *MockHistoryManager) GetHistoryStore() contract.HistoryStore {
	ret := m.Called()
	store, _ := ret.Get(0).(contract.HistoryStore)
	return store
}

// MockHistoryStore is a mock implementation of HistoryStore for testing.
type MockHistoryStore struct {
	mock.Mock
}

var _ contract.HistoryStore = &MockHistoryStore{} // Compile-time check

// BeginRun implements the HistoryStore interface.
func (m *MockHistoryStore) BeginRun(rootPath, catalogVersion string, startTime time.Time, configParams map[string]any) (int64, error) {
	ret := m.Called(rootPath, catalogVersion, startTime, configParams)
	return ret.Get(0).(int64), ret.Error(1)
}

// EndRun implements the HistoryStore interface.
func (m *MockHistoryStore) EndRun(runID int64, endTime time.Time, summary contract.RunSummary) error {
	ret := m.Called(runID, endTime, summary)
	return ret.Error(0)
}

// RecordFileScores implements the HistoryStore interface.
func (m *MockHistoryStore) RecordFileScores(runID int64, analysisTime time.Time, records []schema.FileQualityRecord) error {
	ret := m.Called(runID, analysisTime, records)
	return ret.Error(0)
}

// RecordFindings implements the HistoryStore interface.
func (m *MockHistoryStore) RecordFindings(runID int64, findings []schema.Finding) error {
	ret := m.Called(runID, findings)
	return ret.Error(0)
}

// GetStatus implements the HistoryStore interface.
func (m *MockHistoryStore) GetStatus() (schema.HistoryStatus, error) {
	ret := m.Called()
	return ret.Get(0).(schema.HistoryStatus), ret.Error(1)
}

// GetAllRuns implements the HistoryStore interface.
func (m *MockHistoryStore) GetAllRuns() ([]schema.AuditRunRecord, error) {
	ret := m.Called()
	runs, _ := ret.Get(0).([]schema.AuditRunRecord)
	return runs, ret.Error(1)
}

// GetAllFileScores implements the HistoryStore interface.
func (m *MockHistoryStore) GetAllFileScores() ([]schema.FileScoreRecord, error) {
	ret := m.Called()
	scores, _ := ret.Get(0).([]schema.FileScoreRecord)
	return scores, ret.Error(1)
}

// GetAllFindings implements the HistoryStore interface.
func (m *MockHistoryStore) GetAllFindings() ([]schema.FindingRecord, error) {
	ret := m.Called()
	findings, _ := ret.Get(0).([]schema.FindingRecord)
	return findings, ret.Error(1)
}

// Close implements the HistoryStore interface.
func (m *MockHistoryStore) Close() error {
	ret := m.Called()
	return ret.Error(0)
}
