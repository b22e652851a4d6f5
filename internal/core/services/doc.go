// Package services contains the application's core business logic.
// Services implement the driving ports and depend only on driven ports.
package services
