package memory

import (
	"context"
	"sync"

	"quiz-training-service/internal/domain"
)

// IdentityStore holds users and courses; it implements both app.UserStore
// and app.CourseStore.
type IdentityStore struct {
	mu      sync.RWMutex
	users   map[string]domain.User
	courses map[string]domain.Course
}

func NewIdentityStore() *IdentityStore {
	return &IdentityStore{
		users:   make(map[string]domain.User),
		courses: make(map[string]domain.Course),
	}
}

func (s *IdentityStore) AddUser(user domain.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.ID] = user
}

func (s *IdentityStore) AddCourse(course domain.Course) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.courses[course.ID] = course
}

func (s *IdentityStore) FindByID(_ context.Context, userID string) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[userID]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return user, nil
}

// Courses returns the course-lookup view of the store.
func (s *IdentityStore) Courses() *CourseView { return &CourseView{store: s} }

// CourseView adapts IdentityStore to app.CourseStore.
type CourseView struct {
	store *IdentityStore
}

func (v *CourseView) FindByID(_ context.Context, courseID string) (domain.Course, error) {
	v.store.mu.RLock()
	defer v.store.mu.RUnlock()
	course, ok := v.store.courses[courseID]
	if !ok {
		return domain.Course{}, domain.ErrCourseNotFound
	}
	return course, nil
}
