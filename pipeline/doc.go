// Package pipeline runs one audio file through model loading, transcription
// and report generation.
//
// Orchestrator.Process never fails: every outcome, including errors from the
// stages, is reported as a tagged Response that a UI can render directly.
//
//	orch := pipeline.New(loader, runner.New(), builder)
//	resp := orch.Process(ctx, pipeline.Request{AudioPath: "sample.wav", Model: "tiny", Format: "txt"})
//	fmt.Println(resp.DisplayText, resp.ElapsedSeconds, resp.ReportPath)
package pipeline
