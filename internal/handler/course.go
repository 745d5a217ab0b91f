package handler

import (
	"net/http"

	"github.com/dangerclosesec/studygroups/internal/model"
	"github.com/dangerclosesec/studygroups/internal/repository"
	"github.com/dangerclosesec/studygroups/internal/service"
	"github.com/go-chi/chi/v5"
)

type CourseHandler struct {
	courses     repository.CourseRepositoryIface
	enrollments *service.EnrollmentService
}

func NewCourseHandler(courses repository.CourseRepositoryIface, enrollments *service.EnrollmentService) *CourseHandler {
	return &CourseHandler{courses: courses, enrollments: enrollments}
}

func (h *CourseHandler) Routes(r chi.Router) {
	r.Get("/", h.ListCourses)
	r.Get("/enrolled", h.ListEnrollments)
	r.Get("/{courseID}", h.GetCourse)
	r.Put("/{courseID}/enrollment", h.Enroll)
	r.Delete("/{courseID}/enrollment", h.Unenroll)
}

type CoursesResponse struct {
	BaseResponse
	Courses []*model.Course `json:"courses"`
}

type CourseResponse struct {
	BaseResponse
	Course *model.Course `json:"course"`
}

func (h *CourseHandler) ListCourses(w http.ResponseWriter, r *http.Request) {
	courses, err := h.courses.FindAll(r.Context())
	if err != nil {
		respondWithDomainError(w, r, "Listing courses error", err)
		return
	}
	respondWithJSON(w, http.StatusOK, CoursesResponse{BaseResponse: BaseResponse{Ok: true}, Courses: courses})
}

func (h *CourseHandler) GetCourse(w http.ResponseWriter, r *http.Request) {
	course, err := h.courses.FindByID(r.Context(), chi.URLParam(r, "courseID"))
	if err != nil {
		respondWithDomainError(w, r, "Loading course error", err)
		return
	}
	respondWithJSON(w, http.StatusOK, CourseResponse{BaseResponse: BaseResponse{Ok: true}, Course: course})
}

type EnrollmentResponse struct {
	BaseResponse
	Enrollment *model.Enrollment `json:"enrollment"`
}

type EnrollmentsResponse struct {
	BaseResponse
	Enrollments []*model.Enrollment `json:"enrollments"`
}

func (h *CourseHandler) ListEnrollments(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	enrollments, err := h.enrollments.ListEnrollments(r.Context(), userID)
	if err != nil {
		respondWithDomainError(w, r, "Listing enrollments error", err)
		return
	}
	respondWithJSON(w, http.StatusOK, EnrollmentsResponse{BaseResponse: BaseResponse{Ok: true}, Enrollments: enrollments})
}

func (h *CourseHandler) Enroll(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	enrollment, err := h.enrollments.Enroll(r.Context(), userID, chi.URLParam(r, "courseID"))
	if err != nil {
		respondWithDomainError(w, r, "Enrolling in course error", err)
		return
	}
	respondWithJSON(w, http.StatusOK, EnrollmentResponse{BaseResponse: BaseResponse{Ok: true}, Enrollment: enrollment})
}

func (h *CourseHandler) Unenroll(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	if err := h.enrollments.Unenroll(r.Context(), userID, chi.URLParam(r, "courseID")); err != nil {
		respondWithDomainError(w, r, "Unenrolling from course error", err)
		return
	}
	respondWithJSON(w, http.StatusOK, BaseResponse{Ok: true})
}
