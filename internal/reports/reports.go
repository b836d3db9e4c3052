package reports

import (
	"fmt"
	"time"

	"brigade/internal/models"

	"github.com/jinzhu/gorm"
	"github.com/xuri/excelize/v2"
)

// Service builds daily station performance rollups and exports them.
type Service struct {
	db *gorm.DB
}

// NewService creates a reporting service.
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Rollup appends one StationPerformanceRecord per station for the given
// day, computed from that day's completed assignments. Stations with no
// completed work that day are skipped. Running the rollup twice for the
// same day replaces the earlier records.
func (s *Service) Rollup(day time.Time) (int, error) {
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	dayEnd := dayStart.Add(24 * time.Hour)

	var stations []models.Station
	if err := s.db.Find(&stations).Error; err != nil {
		return 0, fmt.Errorf("list stations: %w", err)
	}

	written := 0
	for i := range stations {
		station := &stations[i]

		var assignments []models.Assignment
		err := s.db.Where(
			"station_id = ? AND status = ? AND completed_at >= ? AND completed_at < ?",
			station.ID, string(models.AssignmentStatusCompleted), dayStart, dayEnd,
		).Find(&assignments).Error
		if err != nil {
			return written, fmt.Errorf("load completed assignments for station %d: %w", station.ID, err)
		}
		if len(assignments) == 0 {
			continue
		}

		avgMinutes, accuracy := summarize(assignments)

		err = s.db.Where("station_id = ? AND date = ?", station.ID, dayStart).
			Delete(&models.StationPerformanceRecord{}).Error
		if err != nil {
			return written, fmt.Errorf("clear prior rollup for station %d: %w", station.ID, err)
		}

		record := models.StationPerformanceRecord{
			StationID:       station.ID,
			Date:            dayStart,
			OrdersProcessed: len(assignments),
			AvgTimePerOrder: avgMinutes,
			AccuracyScore:   accuracy,
			EfficiencyScore: station.EfficiencyScore,
		}
		if err := s.db.Create(&record).Error; err != nil {
			return written, fmt.Errorf("write rollup for station %d: %w", station.ID, err)
		}
		written++
	}
	return written, nil
}

// summarize computes the mean actual duration and the share of items that
// finished within their routing estimate.
func summarize(assignments []models.Assignment) (avgMinutes, accuracy float64) {
	total := 0.0
	withinEstimate := 0
	for i := range assignments {
		a := &assignments[i]
		if a.StartedAt == nil || a.CompletedAt == nil {
			continue
		}
		minutes := a.CompletedAt.Sub(*a.StartedAt).Minutes()
		if minutes < 0 {
			minutes = 0
		}
		total += minutes
		if minutes <= float64(a.EstimatedMinutes) {
			withinEstimate++
		}
	}
	avgMinutes = total / float64(len(assignments))
	accuracy = float64(withinEstimate) / float64(len(assignments)) * 100
	return avgMinutes, accuracy
}

// History returns the performance records for one station, newest first.
func (s *Service) History(stationID uint) ([]models.StationPerformanceRecord, error) {
	var records []models.StationPerformanceRecord
	err := s.db.Where("station_id = ?", stationID).Order("date desc").Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("load performance history for station %d: %w", stationID, err)
	}
	return records, nil
}

// ExportExcel renders all performance records into a workbook and returns
// the serialized file.
func (s *Service) ExportExcel() ([]byte, error) {
	var records []models.StationPerformanceRecord
	if err := s.db.Order("date, station_id").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("load performance records: %w", err)
	}

	stationNames, err := s.stationNames()
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()
	sheet := "Station Performance"
	f.SetSheetName("Sheet1", sheet)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"E0E0E0"}, Pattern: 1},
	})

	headers := []string{"Date", "Station", "Orders Processed", "Avg Minutes/Order", "Accuracy %", "Efficiency Score"}
	for i, name := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, name)
	}
	lastCol, _ := excelize.CoordinatesToCellName(len(headers), 1)
	f.SetCellStyle(sheet, "A1", lastCol, headerStyle)

	for row, record := range records {
		name := stationNames[record.StationID]
		values := []interface{}{
			record.Date.Format("2006-01-02"),
			name,
			record.OrdersProcessed,
			record.AvgTimePerOrder,
			record.AccuracyScore,
			record.EfficiencyScore,
		}
		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			f.SetCellValue(sheet, cell, value)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("serialize workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func (s *Service) stationNames() (map[uint]string, error) {
	var stations []models.Station
	if err := s.db.Find(&stations).Error; err != nil {
		return nil, fmt.Errorf("list stations: %w", err)
	}
	names := make(map[uint]string, len(stations))
	for i := range stations {
		names[stations[i].ID] = stations[i].Name
	}
	return names, nil
}
