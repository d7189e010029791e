// Package report publishes the outcome of a sync run.
//
// Format renders an UploadReport as a JSON object whose keys follow account
// index order. GitHubOutput exposes that string to later CI steps through the
// GITHUB_OUTPUT file (or the legacy ::set-output command when the variable is
// unset). S3Archiver and MinioArchiver keep a copy of every report in a
// bucket on AWS S3 or on a MinIO deployment.
package report
