// internal/repository/mock_gen.go
package repository

//go:generate mockgen -source=./user.go -destination=../mocks/mock_user_repository.go -package=mocks UserRepositoryIface
//go:generate mockgen -source=./course.go -destination=../mocks/mock_course_repository.go -package=mocks CourseRepositoryIface
//go:generate mockgen -source=./profile.go -destination=../mocks/mock_profile_repository.go -package=mocks ProfileRepositoryIface
