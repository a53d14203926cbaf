// Package erp declares the internal business records the connector writes:
// partners, addresses, carriers, product templates, sales orders and order
// message threads, together with their repository contracts. The connector
// only performs the subset of operations imports need; general-purpose ERP
// CRUD is out of scope.
package erp
