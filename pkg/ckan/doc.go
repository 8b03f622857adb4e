// Package ckan provides a typed Go client for the CKAN action API, covering
// the actions used by the upload workflow: authz_authorize,
// resource_create, resource_update, package_show and package_patch.
//
// Create a client with:
//
//	client, err := ckan.New("https://demo.ckan.org", apiToken)
//	if err != nil {
//	   panic(err)
//	}
//
// Then call an action:
//
//	dataset, err := client.PackageShow(ctx, "my-dataset")
package ckan
