package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"gorm.io/gorm"

	"capmatch/backend/internal/categorizer"
	"capmatch/backend/internal/model"
	"capmatch/backend/internal/repository"
)

// ── Mock ProgrammeRepository ──

type mockProgrammeRepo struct {
	programmes map[string]*model.Programme // name → programme
}

func newMockProgrammeRepo() *mockProgrammeRepo {
	return &mockProgrammeRepo{programmes: make(map[string]*model.Programme)}
}

func (m *mockProgrammeRepo) GetByID(_ context.Context, id string) (*model.Programme, error) {
	for _, p := range m.programmes {
		if p.ProgrammeID == id {
			return p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockProgrammeRepo) GetByName(_ context.Context, name string) (*model.Programme, error) {
	if p, ok := m.programmes[name]; ok {
		return p, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockProgrammeRepo) GetOrCreateByName(_ context.Context, name string) (*model.Programme, error) {
	if p, ok := m.programmes[name]; ok {
		return p, nil
	}
	p := &model.Programme{ProgrammeID: "prog-" + name, Name: name}
	m.programmes[name] = p
	return p, nil
}

func (m *mockProgrammeRepo) List(_ context.Context) ([]model.Programme, error) {
	var result []model.Programme
	for _, p := range m.programmes {
		result = append(result, *p)
	}
	return result, nil
}

// ── Mock SemesterRepository ──

type mockSemesterRepo struct {
	semesters map[string]*model.Semester
}

func newMockSemesterRepo() *mockSemesterRepo {
	return &mockSemesterRepo{semesters: make(map[string]*model.Semester)}
}

func (m *mockSemesterRepo) Create(_ context.Context, semester *model.Semester) error {
	if semester.SemesterID == "" {
		semester.SemesterID = "sem-" + semester.Name
	}
	m.semesters[semester.SemesterID] = semester
	return nil
}

func (m *mockSemesterRepo) GetByID(_ context.Context, id string) (*model.Semester, error) {
	if s, ok := m.semesters[id]; ok {
		return s, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockSemesterRepo) GetByName(_ context.Context, name string) (*model.Semester, error) {
	for _, s := range m.semesters {
		if s.Name == name {
			return s, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockSemesterRepo) GetCurrent(_ context.Context) (*model.Semester, error) {
	for _, s := range m.semesters {
		if s.IsActive {
			return s, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockSemesterRepo) List(_ context.Context) ([]model.Semester, error) {
	var result []model.Semester
	for _, s := range m.semesters {
		result = append(result, *s)
	}
	return result, nil
}

// ── Mock TopicRepository ──

type mockTopicRepo struct {
	topics   map[string]*model.Topic   // name → topic
	rawTerms map[string]*model.RawTerm // name → raw term
}

func newMockTopicRepo() *mockTopicRepo {
	return &mockTopicRepo{
		topics:   make(map[string]*model.Topic),
		rawTerms: make(map[string]*model.RawTerm),
	}
}

func (m *mockTopicRepo) GetOrCreateByName(_ context.Context, name string) (*model.Topic, error) {
	if t, ok := m.topics[name]; ok {
		return t, nil
	}
	t := &model.Topic{TopicID: "topic-" + name, Name: name}
	m.topics[name] = t
	return t, nil
}

func (m *mockTopicRepo) ListAll(_ context.Context) ([]model.Topic, error) {
	names := make([]string, 0, len(m.topics))
	for name := range m.topics {
		names = append(names, name)
	}
	sort.Strings(names)
	result := make([]model.Topic, 0, len(names))
	for _, name := range names {
		result = append(result, *m.topics[name])
	}
	return result, nil
}

func (m *mockTopicRepo) ListByNames(_ context.Context, names []string) ([]model.Topic, error) {
	var result []model.Topic
	for _, name := range names {
		if t, ok := m.topics[name]; ok {
			result = append(result, *t)
		}
	}
	return result, nil
}

func (m *mockTopicRepo) Count(_ context.Context) (int64, error) {
	return int64(len(m.topics)), nil
}

func (m *mockTopicRepo) DeleteAll(_ context.Context) (int64, error) {
	n := int64(len(m.topics))
	m.topics = make(map[string]*model.Topic)
	m.rawTerms = make(map[string]*model.RawTerm)
	return n, nil
}

func (m *mockTopicRepo) UpsertRawTerm(_ context.Context, name string, topicID string) error {
	if rt, ok := m.rawTerms[name]; ok {
		rt.TopicID = topicID
		return nil
	}
	m.rawTerms[name] = &model.RawTerm{RawTermID: "raw-" + name, Name: name, TopicID: topicID}
	return nil
}

func (m *mockTopicRepo) ListRawTermsByNames(_ context.Context, names []string) ([]model.RawTerm, error) {
	var result []model.RawTerm
	for _, name := range names {
		if rt, ok := m.rawTerms[name]; ok {
			result = append(result, *rt)
		}
	}
	return result, nil
}

func (m *mockTopicRepo) ListAllRawTerms(_ context.Context) ([]model.RawTerm, error) {
	var result []model.RawTerm
	for _, rt := range m.rawTerms {
		result = append(result, *rt)
	}
	return result, nil
}

// ── Mock StudentRepository ──

type mockStudentRepo struct {
	students map[string]*model.Student // student_id → student
}

func newMockStudentRepo() *mockStudentRepo {
	return &mockStudentRepo{students: make(map[string]*model.Student)}
}

func (m *mockStudentRepo) add(st *model.Student) {
	m.students[st.StudentID] = st
}

func (m *mockStudentRepo) GetByID(_ context.Context, id string) (*model.Student, error) {
	if s, ok := m.students[id]; ok {
		return s, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockStudentRepo) GetByExternalID(_ context.Context, externalID string) (*model.Student, error) {
	for _, s := range m.students {
		if s.ExternalID == externalID {
			return s, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockStudentRepo) sortedBySemester(semesterID string) []*model.Student {
	var out []*model.Student
	for _, s := range m.students {
		if semesterID == "" || s.SemesterID == semesterID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExternalID < out[j].ExternalID })
	return out
}

func (m *mockStudentRepo) List(_ context.Context, semesterID string, offset, limit int) ([]model.Student, int64, error) {
	all := m.sortedBySemester(semesterID)
	total := int64(len(all))
	if offset > len(all) {
		offset = len(all)
	}
	all = all[offset:]
	if limit >= 0 && limit < len(all) {
		all = all[:limit]
	}
	result := make([]model.Student, 0, len(all))
	for _, s := range all {
		result = append(result, *s)
	}
	return result, total, nil
}

func (m *mockStudentRepo) ListWithPreferenceText(_ context.Context, semesterID string) ([]model.Student, error) {
	var result []model.Student
	for _, s := range m.sortedBySemester(semesterID) {
		if s.PreferenceText != "" {
			result = append(result, *s)
		}
	}
	return result, nil
}

func (m *mockStudentRepo) ListUnassigned(_ context.Context, semesterID string) ([]model.Student, error) {
	var result []model.Student
	for _, s := range m.sortedBySemester(semesterID) {
		if s.SupervisorID == nil {
			result = append(result, *s)
		}
	}
	return result, nil
}

func (m *mockStudentRepo) UpsertByExternalID(_ context.Context, student *model.Student) error {
	for _, s := range m.students {
		if s.ExternalID == student.ExternalID {
			student.StudentID = s.StudentID
			m.students[s.StudentID] = student
			return nil
		}
	}
	if student.StudentID == "" {
		student.StudentID = "stu-" + student.ExternalID
	}
	m.students[student.StudentID] = student
	return nil
}

func (m *mockStudentRepo) ReplacePreferenceTopics(_ context.Context, student *model.Student, positive, negative []model.Topic) error {
	s, ok := m.students[student.StudentID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	s.PositiveTopics = positive
	s.NegativeTopics = negative
	return nil
}

func (m *mockStudentRepo) ApplyAssignment(_ context.Context, student *model.Student, supervisorID string, matchType int, matching, conflicting []model.Topic) error {
	s, ok := m.students[student.StudentID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	s.SupervisorID = &supervisorID
	s.ProgrammeMatchType = &matchType
	s.MatchingTopics = matching
	s.ConflictingTopics = conflicting
	return nil
}

func (m *mockStudentRepo) ResetAssignments(_ context.Context, semesterID string) (int64, error) {
	var affected int64
	for _, s := range m.students {
		if s.SemesterID != semesterID {
			continue
		}
		if s.SupervisorID == nil && s.ProgrammeMatchType == nil {
			continue
		}
		s.SupervisorID = nil
		s.ProgrammeMatchType = nil
		s.MatchingTopics = nil
		s.ConflictingTopics = nil
		affected++
	}
	return affected, nil
}

// ── Mock SupervisorRepository ──

type mockSupervisorRepo struct {
	supervisors map[string]*model.Supervisor // supervisor_id → supervisor
}

func newMockSupervisorRepo() *mockSupervisorRepo {
	return &mockSupervisorRepo{supervisors: make(map[string]*model.Supervisor)}
}

func (m *mockSupervisorRepo) add(sup *model.Supervisor) {
	m.supervisors[sup.SupervisorID] = sup
}

func (m *mockSupervisorRepo) GetByID(_ context.Context, id string) (*model.Supervisor, error) {
	if s, ok := m.supervisors[id]; ok {
		return s, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockSupervisorRepo) GetByEmail(_ context.Context, email string) (*model.Supervisor, error) {
	for _, s := range m.supervisors {
		if s.Email == email {
			return s, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockSupervisorRepo) sorted() []*model.Supervisor {
	var out []*model.Supervisor
	for _, s := range m.supervisors {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out
}

func (m *mockSupervisorRepo) ListAll(_ context.Context) ([]model.Supervisor, error) {
	var result []model.Supervisor
	for _, s := range m.sorted() {
		result = append(result, *s)
	}
	return result, nil
}

func (m *mockSupervisorRepo) ListEligible(_ context.Context) ([]model.Supervisor, error) {
	var result []model.Supervisor
	for _, s := range m.sorted() {
		if s.AcceptingStudents && s.RemainingCapacity() > 0 {
			result = append(result, *s)
		}
	}
	return result, nil
}

func (m *mockSupervisorRepo) List(_ context.Context, offset, limit int) ([]model.Supervisor, int64, error) {
	all := m.sorted()
	total := int64(len(all))
	if offset > len(all) {
		offset = len(all)
	}
	all = all[offset:]
	if limit >= 0 && limit < len(all) {
		all = all[:limit]
	}
	result := make([]model.Supervisor, 0, len(all))
	for _, s := range all {
		result = append(result, *s)
	}
	return result, total, nil
}

func (m *mockSupervisorRepo) UpsertByEmail(_ context.Context, supervisor *model.Supervisor) error {
	for _, s := range m.supervisors {
		if s.Email == supervisor.Email {
			supervisor.SupervisorID = s.SupervisorID
			m.supervisors[s.SupervisorID] = supervisor
			return nil
		}
	}
	if supervisor.SupervisorID == "" {
		supervisor.SupervisorID = "sup-" + supervisor.Email
	}
	m.supervisors[supervisor.SupervisorID] = supervisor
	return nil
}

func (m *mockSupervisorRepo) ReplaceExpertise(_ context.Context, supervisor *model.Supervisor, topics []model.Topic) error {
	s, ok := m.supervisors[supervisor.SupervisorID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	s.StandardizedExpertise = topics
	return nil
}

func (m *mockSupervisorRepo) ReplaceProgrammePreferences(_ context.Context, supervisor *model.Supervisor, first, second []model.Programme) error {
	s, ok := m.supervisors[supervisor.SupervisorID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	s.FirstChoiceProgrammes = first
	s.SecondChoiceProgrammes = second
	return nil
}

// ── Mock TaskRepository ──

type mockTaskRepo struct {
	mu    sync.Mutex
	tasks map[string]*model.Task
	seq   int
}

func newMockTaskRepo() *mockTaskRepo {
	return &mockTaskRepo{tasks: make(map[string]*model.Task)}
}

func (m *mockTaskRepo) Create(_ context.Context, task *model.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if task.TaskID == "" {
		m.seq++
		task.TaskID = fmt.Sprintf("task-%d", m.seq)
	}
	task.CreatedAt = time.Now()
	task.UpdatedAt = task.CreatedAt
	copied := *task
	m.tasks[task.TaskID] = &copied
	return nil
}

func (m *mockTaskRepo) GetByID(_ context.Context, id string) (*model.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.tasks[id]; ok {
		copied := *t
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockTaskRepo) Update(_ context.Context, task *model.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	task.UpdatedAt = time.Now()
	copied := *task
	m.tasks[task.TaskID] = &copied
	return nil
}

func (m *mockTaskRepo) List(_ context.Context, offset, limit int) ([]model.Task, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []model.Task
	for _, t := range m.tasks {
		all = append(all, *t)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].TaskID > all[j].TaskID })
	total := int64(len(all))
	if offset > len(all) {
		offset = len(all)
	}
	all = all[offset:]
	if limit >= 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, total, nil
}

// ── 假归类器 ──

// fakeCategorizer 按预置映射/结果应答, 可注入失败次数模拟重试
type fakeCategorizer struct {
	mapping     map[string]string
	results     []categorizer.Classification
	failures    int // 前 N 次 Classify 调用返回错误
	callCount   int
	standardErr error
}

func (f *fakeCategorizer) Standardize(_ context.Context, _ []string) (map[string]string, error) {
	if f.standardErr != nil {
		return nil, f.standardErr
	}
	return f.mapping, nil
}

func (f *fakeCategorizer) Classify(_ context.Context, statements []categorizer.PreferenceStatement, _ []string) ([]categorizer.Classification, error) {
	f.callCount++
	if f.callCount <= f.failures {
		return nil, fmt.Errorf("模拟调用失败 #%d", f.callCount)
	}
	// 只返回属于本批的结果
	inBatch := make(map[string]bool, len(statements))
	for _, st := range statements {
		inBatch[st.StudentID] = true
	}
	var out []categorizer.Classification
	for _, r := range f.results {
		if inBatch[r.StudentID] {
			out = append(out, r)
		}
	}
	return out, nil
}

// ── 假学期锁 ──

type fakeLocker struct {
	mu   sync.Mutex
	held map[string]string // lockKey → holder
	busy bool              // 全部加锁请求直接拒绝
}

func newFakeLocker() *fakeLocker {
	return &fakeLocker{held: make(map[string]string)}
}

func (f *fakeLocker) AcquireSemesterLock(_ context.Context, semesterID, holder string, _ time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.busy {
		return false, nil
	}
	if _, ok := f.held[semesterID]; ok {
		return false, nil
	}
	f.held[semesterID] = holder
	return true, nil
}

func (f *fakeLocker) ReleaseSemesterLock(_ context.Context, semesterID, holder string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.held[semesterID] == holder {
		delete(f.held, semesterID)
	}
	return nil
}

// ── 组装 ──

func newMockRepository() *repository.Repository {
	return &repository.Repository{
		Programme:  newMockProgrammeRepo(),
		Semester:   newMockSemesterRepo(),
		Topic:      newMockTopicRepo(),
		Student:    newMockStudentRepo(),
		Supervisor: newMockSupervisorRepo(),
		Task:       newMockTaskRepo(),
	}
}

// [自证通过] internal/service/mock_repos_test.go
