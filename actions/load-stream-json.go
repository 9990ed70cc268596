package actions

var jsonLoadStream = `{
  "schemaVersion": 1,
  "description": "load stream from the IMF DataMapper API to Snowflake via a staging table swap",
  "connections": {
    "target": {
      "type": "snowflake",
      "logicalName": "${targetEnv}",
      "data": {
        "dsn": "${tgtDsn}"
      }
    }
  },
  "type": "${repeatTransform}",
  "repeatMetadata": {
    "sleepSeconds": ${sleepSeconds}
  },
  "transformGroups": {
    "prepareStaging": {
      "type": "sequential",
      "steps": {
        "generateRows": {
          "type": "GenerateRows",
          "data": {
            "fieldNamesValuesCSV": "\"#sqlCreate:create table if not exists ${stagingObject} like ${targetObject}\",\"#sqlTruncate:truncate table ${stagingObject}\"",
            "numRows": "1",
            "sleepIntervalSeconds": "0"
          }
        },
        "createStaging": {
          "type": "SqlExec",
          "data": {
            "readDataFromStep": "generateRows",
            "databaseConnectionName": "target",
            "sqlQueryFieldName": "#sqlCreate"
          }
        },
        "truncateStaging": {
          "type": "SqlExec",
          "data": {
            "readDataFromStep": "createStaging",
            "databaseConnectionName": "target",
            "sqlQueryFieldName": "#sqlTruncate"
          }
        }
      },
      "sequence": [
        "generateRows",
        "createStaging",
        "truncateStaging"
      ]
    },
    "loadStaging": {
      "type": "sequential",
      "steps": {
        "readApi": {
          "type": "IndicatorInput",
          "data": {
            "apiBaseUrl": "${apiBaseUrl}",
            "dataset": "${dataset}",
            "indicatorCodesCSV": "${indicatorCodes}",
            "apiTimeoutSeconds": "${apiTimeoutSeconds}"
          }
        },
        "filterYears": {
          "type": "FilterRows",
          "data": {
            "readDataFromStep": "readApi",
            "filterType": "JsonLogic",
            "filterMetadata": "${yearFilterRule}"
          }
        },
        "appendToStaging": {
          "type": "TableAppend",
          "data": {
            "readDataFromStep": "filterYears",
            "databaseConnectionName": "target",
            "outputSchemaName": "${targetSchema}",
            "outputTable": "${stagingTable}",
            "keyCols": "INDICATOR:INDICATOR,COUNTRY_CODE:COUNTRY_CODE,YEAR:YEAR",
            "otherCols": "VALUE:VALUE,INGESTION_TIMESTAMP:INGESTION_TIMESTAMP",
            "commitBatchSize": "${commitBatchSize}",
            "txtBatchNumRows": "1000",
            "verifyMaxAttempts": "${verifyMaxAttempts}",
            "verifySleepSeconds": "${verifySleepSeconds}",
            "outputFieldName4RowsAppended": "#rowsAppended"
          }
        }
      },
      "sequence": [
        "readApi",
        "filterYears",
        "appendToStaging"
      ]
    },
    "swapTables": {
      "type": "sequential",
      "steps": {
        "generateRows": {
          "type": "GenerateRows",
          "data": {
            "fieldNamesValuesCSV": "\"#sqlText:alter table ${targetObject} swap with ${stagingObject}\"",
            "numRows": "1",
            "sleepIntervalSeconds": "0"
          }
        },
        "swapWithStaging": {
          "type": "SqlExec",
          "data": {
            "readDataFromStep": "generateRows",
            "databaseConnectionName": "target",
            "sqlQueryFieldName": "#sqlText"
          }
        }
      },
      "sequence": [
        "generateRows",
        "swapWithStaging"
      ]
    }
  },
  "sequence": [
    "prepareStaging",
    "loadStaging",
    "swapTables"
  ]
}`
