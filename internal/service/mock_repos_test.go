package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/atakdmr/StudentAttendance/internal/model"
	"github.com/atakdmr/StudentAttendance/internal/repository"
	pkgerrors "github.com/atakdmr/StudentAttendance/pkg/errors"
)

var mockSeq int

func nextMockID(prefix string) string {
	mockSeq++
	return fmt.Sprintf("%s-%d", prefix, mockSeq)
}

// ── Mock UserRepository ──

type mockUserRepo struct {
	users map[string]*model.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	for _, u := range m.users {
		if u.Username == user.Username {
			return pkgerrors.ErrDuplicateKey
		}
	}
	if user.UserID == "" {
		user.UserID = nextMockID("user")
	}
	m.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByUsername(_ context.Context, username string) (*model.User, error) {
	for _, u := range m.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) Update(_ context.Context, user *model.User) error {
	stored, ok := m.users[user.UserID]
	if !ok || stored.Version != user.Version {
		return pkgerrors.ErrOptimisticLock
	}
	user.Version++
	cp := *user
	m.users[user.UserID] = &cp
	return nil
}

func (m *mockUserRepo) Delete(_ context.Context, id string) error {
	delete(m.users, id)
	return nil
}

func (m *mockUserRepo) List(_ context.Context, role string, offset, limit int) ([]model.User, int64, error) {
	var all []model.User
	for _, u := range m.users {
		if role == "" || u.Role == role {
			all = append(all, *u)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Username < all[j].Username })
	total := int64(len(all))
	if offset > len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (m *mockUserRepo) CountByRole(_ context.Context, role string) (int64, error) {
	var n int64
	for _, u := range m.users {
		if u.Role == role {
			n++
		}
	}
	return n, nil
}

// ── Mock GroupRepository ──

type mockGroupRepo struct {
	groups map[string]*model.Group
	counts map[string]int64
}

func newMockGroupRepo() *mockGroupRepo {
	return &mockGroupRepo{groups: make(map[string]*model.Group), counts: make(map[string]int64)}
}

func (m *mockGroupRepo) Create(_ context.Context, group *model.Group) error {
	for _, g := range m.groups {
		if g.Code == group.Code {
			return pkgerrors.ErrDuplicateKey
		}
	}
	if group.GroupID == "" {
		group.GroupID = nextMockID("group")
	}
	m.groups[group.GroupID] = group
	return nil
}

func (m *mockGroupRepo) GetByID(_ context.Context, id string) (*model.Group, error) {
	if g, ok := m.groups[id]; ok {
		cp := *g
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockGroupRepo) GetByCode(_ context.Context, code string) (*model.Group, error) {
	for _, g := range m.groups {
		if g.Code == code {
			cp := *g
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockGroupRepo) Update(_ context.Context, group *model.Group) error {
	cp := *group
	m.groups[group.GroupID] = &cp
	return nil
}

func (m *mockGroupRepo) Delete(_ context.Context, id string) error {
	delete(m.groups, id)
	return nil
}

func (m *mockGroupRepo) List(_ context.Context) ([]model.Group, error) {
	var result []model.Group
	for _, g := range m.groups {
		result = append(result, *g)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (m *mockGroupRepo) BatchCountStudents(_ context.Context, ids []string) (map[string]int64, error) {
	result := make(map[string]int64, len(ids))
	for _, id := range ids {
		if n, ok := m.counts[id]; ok {
			result[id] = n
		}
	}
	return result, nil
}

// ── Mock StudentRepository ──

type mockStudentRepo struct {
	students  map[string]*model.Student
	groups    *mockGroupRepo
	createErr error
}

func newMockStudentRepo(groups *mockGroupRepo) *mockStudentRepo {
	return &mockStudentRepo{students: make(map[string]*model.Student), groups: groups}
}

func (m *mockStudentRepo) Create(_ context.Context, st *model.Student) error {
	if m.createErr != nil {
		return m.createErr
	}
	if st.StudentID == "" {
		st.StudentID = nextMockID("student")
	}
	cp := *st
	m.students[st.StudentID] = &cp
	return nil
}

func (m *mockStudentRepo) withGroup(st model.Student) model.Student {
	if g, ok := m.groups.groups[st.GroupID]; ok {
		gc := *g
		st.Group = &gc
	}
	return st
}

func (m *mockStudentRepo) GetByID(_ context.Context, id string) (*model.Student, error) {
	if st, ok := m.students[id]; ok {
		cp := m.withGroup(*st)
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockStudentRepo) Update(_ context.Context, st *model.Student) error {
	cp := *st
	cp.Group = nil
	m.students[st.StudentID] = &cp
	return nil
}

func (m *mockStudentRepo) Delete(_ context.Context, id string) error {
	delete(m.students, id)
	return nil
}

func (m *mockStudentRepo) List(_ context.Context, filter repository.StudentFilter, offset, limit int) ([]model.Student, int64, error) {
	search := strings.ToLower(filter.Search)
	var all []model.Student
	for _, st := range m.students {
		if filter.GroupID != "" && st.GroupID != filter.GroupID {
			continue
		}
		if !filter.IncludeInactive && !st.IsActive {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(st.FullName()+" "+st.StudentNumber), search) {
			continue
		}
		all = append(all, m.withGroup(*st))
	}
	sortStudents(all)
	total := int64(len(all))
	if offset > len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (m *mockStudentRepo) ListActiveByGroup(_ context.Context, groupID string) ([]model.Student, error) {
	var result []model.Student
	for _, st := range m.students {
		if st.GroupID == groupID && st.IsActive {
			result = append(result, m.withGroup(*st))
		}
	}
	sortStudents(result)
	return result, nil
}

func sortStudents(list []model.Student) {
	sort.Slice(list, func(i, j int) bool {
		if list[i].LastName != list[j].LastName {
			return list[i].LastName < list[j].LastName
		}
		return list[i].FirstName < list[j].FirstName
	})
}

// ── Mock LessonRepository ──

type mockLessonRepo struct {
	lessons map[string]*model.Lesson
	groups  *mockGroupRepo
	users   *mockUserRepo
}

func newMockLessonRepo(groups *mockGroupRepo, users *mockUserRepo) *mockLessonRepo {
	return &mockLessonRepo{lessons: make(map[string]*model.Lesson), groups: groups, users: users}
}

func (m *mockLessonRepo) withRelations(l model.Lesson) model.Lesson {
	if g, ok := m.groups.groups[l.GroupID]; ok {
		gc := *g
		l.Group = &gc
	}
	if u, ok := m.users.users[l.TeacherID]; ok {
		uc := *u
		l.Teacher = &uc
	}
	return l
}

func (m *mockLessonRepo) Create(_ context.Context, l *model.Lesson) error {
	if l.LessonID == "" {
		l.LessonID = nextMockID("lesson")
	}
	cp := *l
	m.lessons[l.LessonID] = &cp
	return nil
}

func (m *mockLessonRepo) GetByID(_ context.Context, id string) (*model.Lesson, error) {
	if l, ok := m.lessons[id]; ok {
		cp := m.withRelations(*l)
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockLessonRepo) Update(_ context.Context, l *model.Lesson) error {
	cp := *l
	m.lessons[l.LessonID] = &cp
	return nil
}

func (m *mockLessonRepo) Delete(_ context.Context, id string) error {
	delete(m.lessons, id)
	return nil
}

func (m *mockLessonRepo) List(_ context.Context, filter repository.LessonFilter) ([]model.Lesson, error) {
	var result []model.Lesson
	for _, l := range m.lessons {
		if filter.GroupID != "" && l.GroupID != filter.GroupID {
			continue
		}
		if filter.TeacherID != "" && l.TeacherID != filter.TeacherID {
			continue
		}
		if filter.DayOfWeek != 0 && l.DayOfWeek != filter.DayOfWeek {
			continue
		}
		if filter.ActiveOnly && !l.IsActive {
			continue
		}
		if filter.Title != "" && !strings.Contains(strings.ToLower(l.Title), strings.ToLower(filter.Title)) {
			continue
		}
		result = append(result, m.withRelations(*l))
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].DayOfWeek != result[j].DayOfWeek {
			return result[i].DayOfWeek < result[j].DayOfWeek
		}
		return result[i].StartTime < result[j].StartTime
	})
	return result, nil
}

func (m *mockLessonRepo) ListActiveByTeacherAndDay(ctx context.Context, teacherID string, day int, excludeID string) ([]model.Lesson, error) {
	all, _ := m.List(ctx, repository.LessonFilter{TeacherID: teacherID, DayOfWeek: day, ActiveOnly: true})
	return excludeLesson(all, excludeID), nil
}

func (m *mockLessonRepo) ListActiveByGroupAndDay(ctx context.Context, groupID string, day int, excludeID string) ([]model.Lesson, error) {
	all, _ := m.List(ctx, repository.LessonFilter{GroupID: groupID, DayOfWeek: day, ActiveOnly: true})
	return excludeLesson(all, excludeID), nil
}

func excludeLesson(list []model.Lesson, id string) []model.Lesson {
	if id == "" {
		return list
	}
	out := list[:0]
	for _, l := range list {
		if l.LessonID != id {
			out = append(out, l)
		}
	}
	return out
}

// ── Mock AttendanceSessionRepository ──

type mockSessionRepo struct {
	sessions map[string]*model.AttendanceSession
	lessons  *mockLessonRepo
}

func newMockSessionRepo(lessons *mockLessonRepo) *mockSessionRepo {
	return &mockSessionRepo{sessions: make(map[string]*model.AttendanceSession), lessons: lessons}
}

func (m *mockSessionRepo) withRelations(s model.AttendanceSession) model.AttendanceSession {
	if l, ok := m.lessons.lessons[s.LessonID]; ok {
		lc := *l
		s.Lesson = &lc
	}
	if g, ok := m.lessons.groups.groups[s.GroupID]; ok {
		gc := *g
		s.Group = &gc
	}
	if u, ok := m.lessons.users.users[s.TeacherID]; ok {
		uc := *u
		s.Teacher = &uc
	}
	return s
}

func (m *mockSessionRepo) Create(_ context.Context, s *model.AttendanceSession) error {
	if s.SessionID == "" {
		s.SessionID = nextMockID("session")
	}
	cp := *s
	m.sessions[s.SessionID] = &cp
	return nil
}

func (m *mockSessionRepo) GetByID(_ context.Context, id string) (*model.AttendanceSession, error) {
	if s, ok := m.sessions[id]; ok {
		cp := m.withRelations(*s)
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockSessionRepo) GetByIDForShare(ctx context.Context, id string) (*model.AttendanceSession, error) {
	return m.GetByID(ctx, id)
}

func (m *mockSessionRepo) FindByLessonAndTime(_ context.Context, lessonID string, at time.Time) (*model.AttendanceSession, error) {
	for _, s := range m.sessions {
		if s.LessonID == lessonID && s.ScheduledAt.Equal(at) {
			cp := *s
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockSessionRepo) Finalize(_ context.Context, id string, endTime time.Time) (bool, error) {
	s, ok := m.sessions[id]
	if !ok || s.Status == model.SessionFinalized {
		return false, nil
	}
	s.Status = model.SessionFinalized
	s.EndTime = &endTime
	return true, nil
}

func (m *mockSessionRepo) List(_ context.Context, f repository.SessionFilter) ([]model.AttendanceSession, error) {
	var result []model.AttendanceSession
	for _, s := range m.sessions {
		switch {
		case f.TeacherID != "" && s.TeacherID != f.TeacherID,
			f.GroupID != "" && s.GroupID != f.GroupID,
			f.LessonID != "" && s.LessonID != f.LessonID,
			f.Status != "" && s.Status != f.Status,
			f.NotStatus != "" && s.Status == f.NotStatus,
			f.From != nil && s.ScheduledAt.Before(*f.From),
			f.To != nil && !s.ScheduledAt.Before(*f.To):
			continue
		}
		result = append(result, m.withRelations(*s))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ScheduledAt.After(result[j].ScheduledAt) })
	return result, nil
}

// ── Mock AttendanceRecordRepository ──

type mockRecordRepo struct {
	records   map[string]model.AttendanceRecord // key: session_id|student_id
	sessions  *mockSessionRepo
	students  *mockStudentRepo
	createErr error
	// failOnCreate 第 n 次 Create 返回 createErr（从 1 开始，0 表示不注入）
	failOnCreate int
	creates      int
}

func newMockRecordRepo(sessions *mockSessionRepo, students *mockStudentRepo) *mockRecordRepo {
	return &mockRecordRepo{records: make(map[string]model.AttendanceRecord), sessions: sessions, students: students}
}

func recordKey(sessionID, studentID string) string { return sessionID + "|" + studentID }

func (m *mockRecordRepo) Create(_ context.Context, r *model.AttendanceRecord) error {
	m.creates++
	if m.createErr != nil && (m.failOnCreate == 0 || m.failOnCreate == m.creates) {
		return m.createErr
	}
	key := recordKey(r.SessionID, r.StudentID)
	if _, ok := m.records[key]; ok {
		return pkgerrors.ErrDuplicateKey
	}
	if r.RecordID == "" {
		r.RecordID = nextMockID("record")
	}
	m.records[key] = *r
	return nil
}

func (m *mockRecordRepo) GetBySessionAndStudent(_ context.Context, sessionID, studentID string) (*model.AttendanceRecord, error) {
	if r, ok := m.records[recordKey(sessionID, studentID)]; ok {
		return &r, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockRecordRepo) Update(_ context.Context, r *model.AttendanceRecord) error {
	key := recordKey(r.SessionID, r.StudentID)
	stored, ok := m.records[key]
	if !ok || stored.Version != r.Version {
		return pkgerrors.ErrOptimisticLock
	}
	r.Version++
	m.records[key] = *r
	return nil
}

func (m *mockRecordRepo) withRelations(r model.AttendanceRecord) model.AttendanceRecord {
	if st, ok := m.students.students[r.StudentID]; ok {
		sc := m.students.withGroup(*st)
		r.Student = &sc
	}
	if s, ok := m.sessions.sessions[r.SessionID]; ok {
		sc := m.sessions.withRelations(*s)
		r.Session = &sc
	}
	return r
}

func (m *mockRecordRepo) ListBySession(_ context.Context, sessionID string) ([]model.AttendanceRecord, error) {
	var result []model.AttendanceRecord
	for _, r := range m.records {
		if r.SessionID == sessionID {
			result = append(result, m.withRelations(r))
		}
	}
	return result, nil
}

func (m *mockRecordRepo) ListByStudentsBetween(_ context.Context, studentIDs []string, from, to time.Time) ([]model.AttendanceRecord, error) {
	wanted := make(map[string]bool, len(studentIDs))
	for _, id := range studentIDs {
		wanted[id] = true
	}
	var result []model.AttendanceRecord
	for _, r := range m.records {
		if !wanted[r.StudentID] {
			continue
		}
		full := m.withRelations(r)
		if full.Session == nil || full.Session.ScheduledAt.Before(from) || !full.Session.ScheduledAt.Before(to) {
			continue
		}
		result = append(result, full)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Session.ScheduledAt.After(result[j].Session.ScheduledAt)
	})
	return result, nil
}

func (m *mockRecordRepo) ListAbsences(_ context.Context, f repository.AbsenceFilter) ([]model.AttendanceRecord, error) {
	var result []model.AttendanceRecord
	for _, r := range m.records {
		if r.Status != model.StatusAbsent {
			continue
		}
		full := m.withRelations(r)
		s := full.Session
		switch {
		case s == nil || s.Status != model.SessionFinalized,
			f.GroupID != "" && s.GroupID != f.GroupID,
			f.From != nil && s.ScheduledAt.Before(*f.From),
			f.To != nil && !s.ScheduledAt.Before(*f.To):
			continue
		}
		result = append(result, full)
	}
	return result, nil
}

// ── Mock AuditLogRepository ──

type mockAuditLogRepo struct {
	logs []model.AuditLog
}

func (m *mockAuditLogRepo) Create(_ context.Context, log *model.AuditLog) error {
	if log.AuditLogID == "" {
		log.AuditLogID = nextMockID("audit")
	}
	m.logs = append(m.logs, *log)
	return nil
}

func (m *mockAuditLogRepo) ListByUser(_ context.Context, userID string, offset, limit int) ([]model.AuditLog, int64, error) {
	var all []model.AuditLog
	for _, l := range m.logs {
		if l.UserID == userID {
			all = append(all, l)
		}
	}
	total := int64(len(all))
	if offset > len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (m *mockAuditLogRepo) DeleteByUser(_ context.Context, userID string) (int64, error) {
	kept := m.logs[:0]
	var n int64
	for _, l := range m.logs {
		if l.UserID == userID {
			n++
			continue
		}
		kept = append(kept, l)
	}
	m.logs = kept
	return n, nil
}

// ── Mock AnnouncementRepository ──

type mockAnnouncementRepo struct {
	items map[string]*model.Announcement
}

func (m *mockAnnouncementRepo) Create(_ context.Context, a *model.Announcement) error {
	if a.AnnouncementID == "" {
		a.AnnouncementID = nextMockID("ann")
	}
	cp := *a
	m.items[a.AnnouncementID] = &cp
	return nil
}

func (m *mockAnnouncementRepo) GetByID(_ context.Context, id string) (*model.Announcement, error) {
	if a, ok := m.items[id]; ok {
		cp := *a
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockAnnouncementRepo) Update(_ context.Context, a *model.Announcement) error {
	cp := *a
	m.items[a.AnnouncementID] = &cp
	return nil
}

func (m *mockAnnouncementRepo) Delete(_ context.Context, id string) error {
	delete(m.items, id)
	return nil
}

func (m *mockAnnouncementRepo) List(_ context.Context, activeOnly bool) ([]model.Announcement, error) {
	var result []model.Announcement
	for _, a := range m.items {
		if activeOnly && !a.IsActive {
			continue
		}
		result = append(result, *a)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Priority != result[j].Priority {
			return result[i].Priority > result[j].Priority
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

// ── 测试夹具 ──

// mockStore 所有 mock 仓储的集合
type mockStore struct {
	repo          *repository.Repository
	users         *mockUserRepo
	groups        *mockGroupRepo
	students      *mockStudentRepo
	lessons       *mockLessonRepo
	sessions      *mockSessionRepo
	records       *mockRecordRepo
	audits        *mockAuditLogRepo
	announcements *mockAnnouncementRepo
}

func newMockStore() *mockStore {
	users := newMockUserRepo()
	groups := newMockGroupRepo()
	students := newMockStudentRepo(groups)
	lessons := newMockLessonRepo(groups, users)
	sessions := newMockSessionRepo(lessons)
	records := newMockRecordRepo(sessions, students)
	audits := &mockAuditLogRepo{}
	announcements := &mockAnnouncementRepo{items: make(map[string]*model.Announcement)}

	st := &mockStore{
		users: users, groups: groups, students: students, lessons: lessons,
		sessions: sessions, records: records, audits: audits, announcements: announcements,
	}
	st.repo = &repository.Repository{
		User:              users,
		Group:             groups,
		Student:           students,
		Lesson:            lessons,
		AttendanceSession: sessions,
		AttendanceRecord:  records,
		AuditLog:          audits,
		Announcement:      announcements,
	}
	// 模拟事务：fn 出错时恢复考勤记录快照
	st.repo.Tx = func(ctx context.Context, fn func(repo *repository.Repository) error) error {
		snapshot := make(map[string]model.AttendanceRecord, len(records.records))
		for k, v := range records.records {
			snapshot[k] = v
		}
		if err := fn(st.repo); err != nil {
			records.records = snapshot
			return err
		}
		return nil
	}
	return st
}

func (st *mockStore) addTeacher(username string) *model.User {
	u := &model.User{UserID: nextMockID("user"), Username: username, FullName: "Öğretmen " + username, Role: model.RoleTeacher, IsActive: true, Version: 1}
	st.users.users[u.UserID] = u
	return u
}

func (st *mockStore) addGroup(name, code string) *model.Group {
	g := &model.Group{GroupID: nextMockID("group"), Name: name, Code: code}
	st.groups.groups[g.GroupID] = g
	return g
}

func (st *mockStore) addStudent(groupID, number, first, last string, phone *string) *model.Student {
	s := &model.Student{StudentID: nextMockID("student"), GroupID: groupID, StudentNumber: number, FirstName: first, LastName: last, Phone: phone, IsActive: true}
	st.students.students[s.StudentID] = s
	return s
}

func (st *mockStore) addLesson(title string, day int, start, end, groupID, teacherID string) *model.Lesson {
	s, _ := parseClock(start)
	e, _ := parseClock(end)
	l := &model.Lesson{LessonID: nextMockID("lesson"), Title: title, DayOfWeek: day, StartTime: s, EndTime: e, GroupID: groupID, TeacherID: teacherID, IsActive: true}
	st.lessons.lessons[l.LessonID] = l
	return l
}

func (st *mockStore) addSession(l *model.Lesson, at time.Time, status model.SessionStatus) *model.AttendanceSession {
	s := &model.AttendanceSession{
		SessionID: nextMockID("session"), LessonID: l.LessonID, GroupID: l.GroupID, TeacherID: l.TeacherID,
		ScheduledAt: at, Status: status, CreatedAt: at,
	}
	st.sessions.sessions[s.SessionID] = s
	return s
}

func (st *mockStore) addRecord(sessionID, studentID string, status model.AttendanceStatus) model.AttendanceRecord {
	r := model.AttendanceRecord{
		RecordID: nextMockID("record"), SessionID: sessionID, StudentID: studentID,
		Status: status, MarkedAt: time.Now().UTC(), MarkedBy: "seed", Version: 1,
	}
	st.records.records[recordKey(sessionID, studentID)] = r
	return r
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }
