// Package connector contains the core domain of the PrestaShop connector:
// backend configuration, bindings between external and internal records,
// the schema-less external record value tree, import rules and the error
// taxonomy shared by the import pipeline.
//
// The package only declares entities, value objects and ports. Concrete
// adapters (webservice client, GORM repositories, job queue) live in the
// infrastructure layer, the import pipeline itself in the application layer.
package connector
