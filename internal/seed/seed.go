package seed

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	appModels "github.com/yigit/admissions/internal/app/models"
	appRepos "github.com/yigit/admissions/internal/app/repositories"
)

// DefaultCourses is the catalog loaded into an empty database. The catalog is
// owned elsewhere in production; these entries keep development usable.
var DefaultCourses = []appModels.Course{
	{ID: "BSC-CS", Name: "Computer Science", DegreeLevel: "BACHELOR", FieldTag: "Computing & Technology", DurationText: "3 years"},
	{ID: "BENG-ME", Name: "Mechanical Engineering", DegreeLevel: "BACHELOR", FieldTag: "Engineering", DurationText: "4 years full-time"},
	{ID: "BA-FA", Name: "Fine Arts", DegreeLevel: "BACHELOR", FieldTag: "Arts & Humanities", DurationText: "3 years"},
	{ID: "BBA", Name: "Business Administration", DegreeLevel: "BACHELOR", FieldTag: "Business & Management", DurationText: "3 years"},
	{ID: "BSC-BIO", Name: "Biology", DegreeLevel: "BACHELOR", FieldTag: "Life Science", DurationText: "3 years"},
	{ID: "MSC-DS", Name: "Data Science", DegreeLevel: "MASTER", FieldTag: "Science", DurationText: "2 years"},
	{ID: "MA-ID", Name: "Interaction Design", DegreeLevel: "MASTER", FieldTag: "Design", DurationText: "2 years"},
	{ID: "MBA", Name: "Master of Business Administration", DegreeLevel: "MASTER", FieldTag: "Business", DurationText: "18 months"},
}

// CreateDefaultData upserts the default course catalog. Every entry is
// attempted; failures are joined and returned.
func CreateDefaultData(ctx context.Context, courses appRepos.CourseRepository, lgr zerolog.Logger) error {
	lgr.Info().Int("courses", len(DefaultCourses)).Msg("Checking/Creating default course catalog...")

	var finalErr error
	for i := range DefaultCourses {
		course := DefaultCourses[i]
		if err := courses.Upsert(ctx, &course); err != nil {
			lgr.Error().Err(err).Str("courseId", course.ID).Msg("Error creating course")
			finalErr = errors.Join(finalErr, err)
		}
	}

	if finalErr == nil {
		lgr.Info().Msg("Default course catalog is in place.")
	}
	return finalErr
}
