// Command gatecheck queries container availability across terminal websites
// and drives the warehouse management site.
package main
