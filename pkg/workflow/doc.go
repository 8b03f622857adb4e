// Package workflow runs the resource upload: it requests a token, pushes
// the file to storage, saves the resource record and activates the dataset
// when it is still a draft, then navigates to the page chosen by the user.
//
// The user interface is reached through the Control, Notifier, Progress and
// Navigator interfaces, so a Controller can drive a terminal, a web page or
// a test recorder:
//
//	controller, err := workflow.New("ds-1", authorizer, uploader, persister, finalizer,
//	   workflow.WithUI(ui),
//	   workflow.WithSite("https://demo.ckan.org"),
//	)
//	if err != nil {
//	   panic(err)
//	}
//	outcome := controller.Run(ctx, req, schema.ActionFinish)
package workflow
