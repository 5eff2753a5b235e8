package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	"visitor-gate/internal/adapters/camera/filecam"
	"visitor-gate/internal/domain/approvals"
	"visitor-gate/internal/domain/capture"
	"visitor-gate/internal/domain/guardrequests"
	"visitor-gate/internal/domain/statuscheck"
	"visitor-gate/internal/ports/camera"

	"github.com/spf13/cobra"
)

func newSearchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Search a visitor by name, phone or apartment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := statuscheck.NewService(a.client).Search(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printOutcome(cmd.OutOrStdout(), out)
			return nil
		},
	}
}

func newRequestCmd(a *app) *cobra.Command {
	var (
		form      guardrequests.Form
		photoPath string
	)
	cmd := &cobra.Command{
		Use:   "request",
		Short: "Submit an approval request for a visitor",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			w := cmd.OutOrStdout()

			if err := a.openJournal(false); err != nil {
				return err
			}

			var still *camera.Frame
			if photoPath != "" {
				frame, err := captureStill(cmd, a, photoPath)
				if err != nil {
					return err
				}
				still = &frame
			}

			o := guardrequests.NewOrchestrator(a.client, a.submissions, a.log, guardrequests.Options{
				DetectTimeout: a.cfg.DetectTimeout,
			})
			res, err := o.Submit(ctx, form, still)
			if err != nil {
				return err
			}

			fmt.Fprintf(w, "approval_id:   %s\n", res.ApprovalID)
			fmt.Fprintf(w, "visitor_id:    %s\n", res.VisitorID)
			fmt.Fprintf(w, "face_detected: %t\n", res.FaceDetected)
			return nil
		},
	}
	cmd.Flags().StringVar(&form.VisitorName, "name", "", "Visitor name")
	cmd.Flags().StringVar(&form.Purpose, "purpose", "", "Purpose of the visit")
	cmd.Flags().StringVar(&form.AptNumber, "apt", "", "Apartment number")
	cmd.Flags().StringVar(&form.Phone, "phone", "", "Visitor phone (optional)")
	cmd.Flags().StringVar(&photoPath, "photo", "", "Image file used as the camera capture")
	return cmd
}

// captureStill pasa la foto por el pipeline de captura usando el archivo como cámara.
func captureStill(cmd *cobra.Command, a *app, path string) (camera.Frame, error) {
	ctx := cmd.Context()
	p := capture.New(filecam.New(path), a.client, a.log)
	defer p.Close()

	if err := p.Acquire(ctx); err != nil {
		return camera.Frame{}, err
	}
	if err := p.Capture(ctx); err != nil && !errors.Is(err, capture.ErrStale) {
		// sin veredicto igual se envía la foto
		fmt.Fprintf(cmd.ErrOrStderr(), "face detection unavailable: %v\n", err)
	}

	switch st := p.Stage().(type) {
	case capture.Result:
		fmt.Fprintf(cmd.OutOrStdout(), "preview: detected=%t faces=%d\n", st.Verdict.Detected, st.Verdict.FaceCount)
	case capture.Failed:
		if st.Still == nil {
			return camera.Frame{}, fmt.Errorf("%s: %w", st.Reason, st.Err)
		}
	}

	still, ok := p.Still()
	if !ok {
		return camera.Frame{}, errors.New("no photo captured")
	}
	return still, nil
}

func newWatchCmd(a *app) *cobra.Command {
	var interval time.Duration
	cmd := &cobra.Command{
		Use:   "watch <visitor-id>",
		Short: "Poll a visitor's latest request until it is approved or denied",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			w := cmd.OutOrStdout()

			p, err := approvals.WatchVisitor(ctx, a.client, args[0], interval, time.Now,
				func(rec approvals.Approval, st approvals.EffectiveStatus) {
					fmt.Fprintf(w, "%s approval=%s status=%s\n", time.Now().Format(time.TimeOnly), rec.ID, st)
				},
				func(err error) {
					fmt.Fprintf(cmd.ErrOrStderr(), "status poll failed: %v\n", err)
				},
			)
			if err != nil {
				return err
			}

			select {
			case <-p.Done():
			case <-ctx.Done():
				p.Stop()
			}
			return nil
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", a.cfg.PollInterval, "Polling interval")
	return cmd
}

func printOutcome(w io.Writer, o statuscheck.Outcome) {
	if !o.Found {
		fmt.Fprintln(w, "no visitor found")
		return
	}
	fmt.Fprintf(w, "visitor:     %s (%s)\n", o.Visitor.Name, o.Visitor.ID)
	if o.Approval == nil {
		fmt.Fprintln(w, "status:      no requests")
		return
	}
	fmt.Fprintf(w, "approval_id: %s\n", o.Approval.ID)
	fmt.Fprintf(w, "status:      %s\n", o.Status)
	if o.Approval.AptNumber != "" {
		fmt.Fprintf(w, "apt_number:  %s\n", o.Approval.AptNumber)
	}
	if o.Approval.ValidUntil != nil {
		fmt.Fprintf(w, "valid_until: %s\n", o.Approval.ValidUntil.Local().Format(time.DateTime))
	}
}
